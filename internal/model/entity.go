package model

import "encoding/json"

// Kind identifies the entity family an operation acts on. The values double
// as index table names.
type Kind string

const (
	KindUser  Kind = "user"
	KindGroup Kind = "group"
)

// Name holds the decomposed name of a user.
type Name struct {
	Formatted  string `json:"formatted,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// Email is a single entry of a user's multi-valued email list.
type Email struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// PhoneNumber is a single entry of a user's multi-valued phone list.
type PhoneNumber struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// User is the normalized identity entity exposed to the provider.
//
// ID is assigned by the connector on creation and is immutable afterwards.
// Password is a write-only secret: it is accepted on create/update and stored
// opaquely, but never re-emitted in list responses. Custom maps a
// schema-extension URN to the raw attribute bag supplied under that URN.
type User struct {
	ID           string                     `json:"id"`
	UserName     string                     `json:"userName"`
	Name         Name                       `json:"name"`
	Active       bool                       `json:"active"`
	Password     string                     `json:"-"`
	Emails       []Email                    `json:"emails,omitempty"`
	PhoneNumbers []PhoneNumber              `json:"phoneNumbers,omitempty"`
	Custom       map[string]json.RawMessage `json:"-"`
}

// Membership is a weak reference from a group to a user: the member's id plus
// a cached display name. It does not own the referenced user.
type Membership struct {
	Value   string `json:"value"`
	Display string `json:"display,omitempty"`
}

// Group is the normalized group entity. DisplayName must be unique among all
// groups, compared case-insensitively.
type Group struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Members     []Membership `json:"members,omitempty"`
}
