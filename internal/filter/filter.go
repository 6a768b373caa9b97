// Package filter evaluates protocol-level query filters against indexed
// entities.
package filter

// Type discriminates the supported filter shapes.
type Type int

const (
	// TypeEquality is a single "attribute eq value" comparison.
	TypeEquality Type = iota
	// TypeOr is a disjunction of equality sub-filters.
	TypeOr
)

// AttributePath names the attribute a filter compares. Schema is empty for
// well-known attributes and carries the extension URN for custom-schema
// attributes. SubName is set for nested paths such as name.givenName.
type AttributePath struct {
	Schema  string
	Name    string
	SubName string
}

// Filter is a parsed query filter: either an equality comparison or a
// disjunction of them.
type Filter struct {
	Type  Type
	Path  AttributePath
	Value string
	Sub   []Filter
}
