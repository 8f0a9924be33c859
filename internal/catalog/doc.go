// Package catalog loads the static curriculum document.
//
// Documents are JSON or YAML with the shape {topics, version}. The package
// also converts the numbered plain-text outline that curriculum authors
// write ("2.3. Heat" followed by "Prerequisites: A, B") into a document.
package catalog
