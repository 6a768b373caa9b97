package directory

import (
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: CategoryUnknown,
		},
		{
			name:     "invalid credentials",
			err:      ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad bind")),
			expected: CategoryAuthentication,
		},
		{
			name:     "no such object",
			err:      ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing")),
			expected: CategoryNotFound,
		},
		{
			name:     "entry already exists",
			err:      ldap.NewError(ldap.LDAPResultEntryAlreadyExists, errors.New("dup")),
			expected: CategoryConflict,
		},
		{
			name:     "invalid syntax",
			err:      ldap.NewError(ldap.LDAPResultInvalidAttributeSyntax, errors.New("syntax")),
			expected: CategoryValidation,
		},
		{
			name:     "server down",
			err:      ldap.NewError(ldap.LDAPResultServerDown, errors.New("down")),
			expected: CategoryServer,
		},
		{
			name:     "plain error",
			err:      errors.New("something else"),
			expected: CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.err))
		})
	}
}
