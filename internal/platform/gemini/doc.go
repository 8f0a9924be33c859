// Package gemini provides an implementation of the generation.Generator
// interface that asks Google's Gemini API to write a lesson.
//
// This package is an infrastructure adapter: it renders a prompt for the
// topic and lesson number, calls the model with a JSON response type,
// retries transient failures with exponential backoff and jitter, and
// decodes the reply into domain cards. Safety blocks and malformed replies
// are permanent and are not retried.
package gemini
