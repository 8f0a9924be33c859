// Package store defines the key-value persistence port and the adapter the
// rest of the application talks to. Backends live under internal/platform
// and implement Backend; the Adapter namespaces keys, encodes JSON, and
// absorbs read failures so callers degrade to default state instead of
// failing.
package store
