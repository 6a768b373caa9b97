package scim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/scimgate/internal/filter"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *filter.Filter
	}{
		{
			name:  "simple equality",
			input: `userName eq "alice"`,
			expected: &filter.Filter{
				Type:  filter.TypeEquality,
				Path:  filter.AttributePath{Name: "userName"},
				Value: "alice",
			},
		},
		{
			name:  "operator is case-insensitive",
			input: `userName EQ "alice"`,
			expected: &filter.Filter{
				Type:  filter.TypeEquality,
				Path:  filter.AttributePath{Name: "userName"},
				Value: "alice",
			},
		},
		{
			name:  "dotted sub-attribute",
			input: `name.givenName eq "Alice"`,
			expected: &filter.Filter{
				Type:  filter.TypeEquality,
				Path:  filter.AttributePath{Name: "name", SubName: "givenName"},
				Value: "Alice",
			},
		},
		{
			name:  "urn-qualified custom attribute",
			input: `urn:okta:onprem_app:1.0:user:custom:departmentName eq "Engineering"`,
			expected: &filter.Filter{
				Type: filter.TypeEquality,
				Path: filter.AttributePath{
					Schema: "urn:okta:onprem_app:1.0:user:custom",
					Name:   "departmentName",
				},
				Value: "Engineering",
			},
		},
		{
			name:  "disjunction over emails",
			input: `email eq "a@x.com" or email eq "b@x.com"`,
			expected: &filter.Filter{
				Type: filter.TypeOr,
				Sub: []filter.Filter{
					{Type: filter.TypeEquality, Path: filter.AttributePath{Name: "email"}, Value: "a@x.com"},
					{Type: filter.TypeEquality, Path: filter.AttributePath{Name: "email"}, Value: "b@x.com"},
				},
			},
		},
		{
			name:  "quoted value containing the word or",
			input: `displayName eq "this or that"`,
			expected: &filter.Filter{
				Type:  filter.TypeEquality,
				Path:  filter.AttributePath{Name: "displayName"},
				Value: "this or that",
			},
		},
		{
			name:  "empty quoted value",
			input: `userName eq ""`,
			expected: &filter.Filter{
				Type:  filter.TypeEquality,
				Path:  filter.AttributePath{Name: "userName"},
				Value: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "unsupported operator", input: `userName co "ali"`},
		{name: "unquoted value", input: `userName eq alice`},
		{name: "malformed disjunct", input: `email eq "a@x.com" or bogus`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.input)
			assert.Error(t, err)
		})
	}
}
