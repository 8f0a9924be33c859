// Package session drives a single lesson attempt: which card is showing,
// buffered answers, whether feedback is visible, and the transitions
// between cards. Every index change is committed to the progress ledger
// before the in-memory index moves, so a reload resumes on the card the
// learner was viewing.
package session
