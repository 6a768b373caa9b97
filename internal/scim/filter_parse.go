package scim

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/isometry/scimgate/internal/filter"
)

var equalityPattern = regexp.MustCompile(`^(\S+)\s+(?i:eq)\s+"([^"]*)"$`)

// ParseFilter parses the filter query parameter into the engine's filter
// shape. Only equality expressions and a single top-level disjunction of
// them are understood, matching what the engine supports.
func ParseFilter(input string) (*filter.Filter, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty filter")
	}

	parts := splitOr(input)
	if len(parts) > 1 {
		f := &filter.Filter{Type: filter.TypeOr}
		for _, part := range parts {
			sub, err := parseEquality(part)
			if err != nil {
				return nil, err
			}
			f.Sub = append(f.Sub, *sub)
		}
		return f, nil
	}

	return parseEquality(input)
}

func parseEquality(expr string) (*filter.Filter, error) {
	expr = strings.TrimSpace(expr)
	m := equalityPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil, fmt.Errorf("unsupported filter expression: %q", expr)
	}
	return &filter.Filter{
		Type:  filter.TypeEquality,
		Path:  parseAttributePath(m[1]),
		Value: m[2],
	}, nil
}

// parseAttributePath splits an attribute reference into schema, name and
// sub-attribute. URN-qualified attributes split at the last colon; dotted
// attributes split into name and sub-name.
func parseAttributePath(attr string) filter.AttributePath {
	if idx := strings.LastIndex(attr, ":"); idx >= 0 {
		return filter.AttributePath{
			Schema: attr[:idx],
			Name:   attr[idx+1:],
		}
	}
	if name, sub, ok := strings.Cut(attr, "."); ok {
		return filter.AttributePath{Name: name, SubName: sub}
	}
	return filter.AttributePath{Name: attr}
}

// splitOr splits on the keyword "or" outside of quoted values.
func splitOr(input string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false

	tokens := strings.Fields(input)
	for _, token := range tokens {
		if !inQuotes && strings.EqualFold(token, "or") {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(token)
		if strings.Count(token, `"`)%2 == 1 {
			inQuotes = !inQuotes
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}
