// Package task runs background work off the request path. Tasks go into a
// bounded in-memory queue and a fixed pool of workers executes them. The
// application uses it to generate the next lesson of a topic while the
// learner is still working through the current one.
package task
