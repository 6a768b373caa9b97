package directory

import (
	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/scimgate/internal/model"
)

// ErrorCategory buckets directory failures for logging and diagnosis.
type ErrorCategory string

const (
	CategoryConnection     ErrorCategory = "connection"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryValidation     ErrorCategory = "validation"
	CategoryServer         ErrorCategory = "server"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Categorize maps an error from the LDAP library onto an ErrorCategory.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	ldapErr, ok := err.(*ldap.Error)
	if !ok {
		return CategoryUnknown
	}

	switch ldapErr.ResultCode {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return CategoryAuthentication
	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return CategoryNotFound
	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultAttributeOrValueExists,
		ldap.LDAPResultObjectClassViolation,
		ldap.LDAPResultNotAllowedOnNonLeaf:
		return CategoryConflict
	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation:
		return CategoryValidation
	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded:
		return CategoryServer
	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return CategoryConnection
	default:
		return CategoryUnknown
	}
}

// wrapError wraps err into a model.DirectoryError with operation context.
func wrapError(op, dn string, err error) error {
	if err == nil {
		return nil
	}
	return &model.DirectoryError{Op: op, DN: dn, Cause: err}
}
