package model

import (
	"fmt"
	"strings"
)

// NotFoundError indicates that a lookup by id failed. It is part of the
// normal operation contract and must be returned to the caller, not swallowed.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// DuplicateError indicates a group display-name collision. Display names are
// compared case-insensitively.
type DuplicateError struct {
	Kind Kind
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with name %q already exists", e.Kind, e.Name)
}

// FormatError indicates a malformed packed multi-valued field encountered
// during attribute decoding, or a required attribute that is missing entirely.
// Raw carries the offending value so diagnosis does not require directory
// access.
type FormatError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("malformed attribute %q", e.Field))
	if e.Raw != "" {
		parts = append(parts, fmt.Sprintf("value %q", e.Raw))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, ": ")
}

// DirectoryError wraps a failed directory-service operation. Writes that fail
// with a DirectoryError are logged and absorbed by the provisioning service;
// the index mutation proceeds regardless.
type DirectoryError struct {
	Op    string
	DN    string
	Cause error
}

func (e *DirectoryError) Error() string {
	msg := fmt.Sprintf("directory %s failed", e.Op)
	if e.DN != "" {
		msg += fmt.Sprintf(" for %q", e.DN)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// ManagementError is a generic operational failure carrying a caller-supplied
// code and an optional help reference, mirroring the provisioning protocol's
// error surface.
type ManagementError struct {
	Code    string
	Message string
	HelpURL string
	Cause   error
}

func (e *ManagementError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ManagementError) Unwrap() error {
	return e.Cause
}
