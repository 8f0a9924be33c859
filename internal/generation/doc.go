// Package generation defines the port through which lesson content enters
// the application. Implementations live under internal/platform: bundled
// JSON lessons (lessonfile) and LLM generated lessons (gemini). Cache sits
// in front of either so reopening a lesson or prefetching the next one
// does not repeat the work.
package generation
