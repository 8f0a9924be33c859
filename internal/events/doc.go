// Package events lets the services announce state changes without knowing
// who listens. The progress ledger follows user selection through it and
// the task package prefetches lesson content when a lesson opens.
package events
