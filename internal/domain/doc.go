// Package domain contains the learner-facing entities of the curriculum
// engine: users, their progress ledgers, lesson cards, and the error taxonomy.
// It is independent of storage, transport, and content generation.
package domain
