package scim

import (
	"encoding/json"
	"strings"

	"github.com/isometry/scimgate/internal/model"
)

// SCIM 1.1 core schema URNs.
const (
	coreUserSchema  = "urn:scim:schemas:core:1.0"
	coreGroupSchema = "urn:scim:schemas:core:1.0"
)

type nameResource struct {
	Formatted  string `json:"formatted,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type multiValue struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// userResource is the wire form of a user. Extension attributes arrive as
// top-level members keyed by their schema URN; they are captured verbatim
// into Custom. The password is write-only: accepted on input, never emitted.
type userResource struct {
	Schemas      []string     `json:"schemas,omitempty"`
	ID           string       `json:"id,omitempty"`
	UserName     string       `json:"userName"`
	Name         nameResource `json:"name"`
	Active       bool         `json:"active"`
	Password     string       `json:"password,omitempty"`
	Emails       []multiValue `json:"emails,omitempty"`
	PhoneNumbers []multiValue `json:"phoneNumbers,omitempty"`

	Custom map[string]json.RawMessage `json:"-"`
}

func (u *userResource) UnmarshalJSON(data []byte) error {
	type alias userResource
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	for key, raw := range members {
		if strings.HasPrefix(key, "urn:") && key != coreUserSchema {
			if a.Custom == nil {
				a.Custom = map[string]json.RawMessage{}
			}
			a.Custom[key] = raw
		}
	}

	*u = userResource(a)
	return nil
}

func (u userResource) MarshalJSON() ([]byte, error) {
	type alias userResource
	data, err := json.Marshal(alias(u))
	if err != nil {
		return nil, err
	}
	if len(u.Custom) == 0 {
		return data, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for urn, raw := range u.Custom {
		members[urn] = raw
	}
	return json.Marshal(members)
}

type memberResource struct {
	Value   string `json:"value"`
	Display string `json:"display,omitempty"`
}

type groupResource struct {
	Schemas     []string         `json:"schemas,omitempty"`
	ID          string           `json:"id,omitempty"`
	DisplayName string           `json:"displayName"`
	Members     []memberResource `json:"members,omitempty"`
}

// listResponse is the collection envelope. The start index is echoed from
// the request; resources are not sliced to the requested page size.
type listResponse struct {
	Schemas      []string `json:"schemas"`
	TotalResults int      `json:"totalResults"`
	StartIndex   int      `json:"startIndex,omitempty"`
	Resources    any      `json:"Resources"`
}

type errorResponse struct {
	Errors []errorDetail `json:"Errors"`
}

type errorDetail struct {
	Description string `json:"description"`
	Code        string `json:"code"`
	HelpURL     string `json:"helpUrl,omitempty"`
}

func toModelUser(r *userResource) *model.User {
	user := &model.User{
		ID:       r.ID,
		UserName: r.UserName,
		Name: model.Name{
			Formatted:  r.Name.Formatted,
			GivenName:  r.Name.GivenName,
			FamilyName: r.Name.FamilyName,
		},
		Active:   r.Active,
		Password: r.Password,
		Custom:   r.Custom,
	}
	for _, e := range r.Emails {
		user.Emails = append(user.Emails, model.Email{Value: e.Value, Type: e.Type, Primary: e.Primary})
	}
	for _, p := range r.PhoneNumbers {
		user.PhoneNumbers = append(user.PhoneNumbers, model.PhoneNumber{Value: p.Value, Type: p.Type, Primary: p.Primary})
	}
	return user
}

func toWireUser(u *model.User) userResource {
	r := userResource{
		Schemas:  []string{coreUserSchema},
		ID:       u.ID,
		UserName: u.UserName,
		Name: nameResource{
			Formatted:  u.Name.Formatted,
			GivenName:  u.Name.GivenName,
			FamilyName: u.Name.FamilyName,
		},
		Active: u.Active,
		Custom: u.Custom,
	}
	for _, e := range u.Emails {
		r.Emails = append(r.Emails, multiValue{Value: e.Value, Type: e.Type, Primary: e.Primary})
	}
	for _, p := range u.PhoneNumbers {
		r.PhoneNumbers = append(r.PhoneNumbers, multiValue{Value: p.Value, Type: p.Type, Primary: p.Primary})
	}
	return r
}

func toModelGroup(r *groupResource) *model.Group {
	group := &model.Group{
		ID:          r.ID,
		DisplayName: r.DisplayName,
	}
	for _, m := range r.Members {
		group.Members = append(group.Members, model.Membership{Value: m.Value, Display: m.Display})
	}
	return group
}

func toWireGroup(g *model.Group) groupResource {
	r := groupResource{
		Schemas:     []string{coreGroupSchema},
		ID:          g.ID,
		DisplayName: g.DisplayName,
	}
	for _, m := range g.Members {
		r.Members = append(r.Members, memberResource{Value: m.Value, Display: m.Display})
	}
	return r
}
