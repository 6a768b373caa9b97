package model

// Attributes is the directory-entry representation of an entity: attribute
// name to one or more string values. It is a transient projection produced by
// the codec and consumed by the directory gateway; it is never retained after
// synchronization.
type Attributes map[string][]string

// First returns the first value of the named attribute, or "" when absent.
func (a Attributes) First(name string) string {
	values := a[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Add appends a value to the named attribute.
func (a Attributes) Add(name, value string) {
	a[name] = append(a[name], value)
}

// Has reports whether the named attribute carries at least one value.
func (a Attributes) Has(name string) bool {
	return len(a[name]) > 0
}
