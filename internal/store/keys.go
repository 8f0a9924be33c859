package store

import "strings"

// Keys builds the namespaced keys the application persists under.
type Keys struct {
	namespace string
}

// NewKeys returns a key builder for namespace.
func NewKeys(namespace string) Keys {
	return Keys{namespace: namespace}
}

// Namespace returns the configured prefix.
func (k Keys) Namespace() string {
	return k.namespace
}

// Users is the key of the user registry list.
func (k Keys) Users() string {
	return k.namespace + ":users"
}

// ActiveUser is the key of the process-wide active user marker.
func (k Keys) ActiveUser() string {
	return k.namespace + ":active-user"
}

// Progress is the key of a user's progress ledger.
func (k Keys) Progress(userID string) string {
	return k.ProgressPrefix() + userID
}

// ProgressPrefix is the common prefix of every ledger key.
func (k Keys) ProgressPrefix() string {
	return k.namespace + ":progress:"
}

// ProgressUserID extracts the user id from a ledger key.
func (k Keys) ProgressUserID(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, k.ProgressPrefix())
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
