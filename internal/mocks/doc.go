// Package mocks provides shared test doubles for the content generator and
// the persistence backend.
//
// MockGenerator follows the function-field style: set GenerateLessonFn or
// the default Content/Err, then inspect the recorded calls. MockBackend is
// a testify mock; program it with On(...).Return(...).
package mocks
