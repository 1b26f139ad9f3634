// Package uid generates identifiers for persisted records and request scoped values.
package uid

// NumberID generates sortable numeric identifiers (database primary keys).
type NumberID interface {
	Generate() int64
}

// StringID generates opaque string identifiers.
type StringID interface {
	Generate() string
}
