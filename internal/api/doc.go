// Package api exposes the learner engine as a local JSON HTTP API. It
// decodes and validates requests, calls the engine, and maps domain errors
// to status codes and safe messages. It holds no learner state itself.
package api
