// Package ciutil detects CI environments and resolves the connection strings
// used by backend tests that need a live Postgres or Redis server.
package ciutil
