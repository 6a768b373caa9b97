// Package codec converts between normalized entities and directory attribute
// sets.
//
// Multi-valued fields are packed into single directory attributes using a
// fixed delimiter per field: phone numbers are comma-joined
// "value,primary,type" triples, emails are pipe-joined "value|type|primary"
// triples, and group memberships are pipe-joined "id|displayName" pairs. No
// escaping is performed, so the delimiter character is forbidden inside the
// packed values; this is a representational constraint of the directory
// mapping, not something the codec works around.
package codec

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/isometry/scimgate/internal/model"
)

// Directory attribute names used by the mapping.
const (
	attrObjectClass = "objectClass"
	attrUID         = "uid"
	attrSurname     = "sn"
	attrGivenName   = "givenName"
	attrDisplayName = "displayName"
	attrDescription = "description"
	attrPassword    = "userPassword"
	attrPhone       = "telephoneNumber"
	attrMail        = "mail"
	attrCommonName  = "cn"
	attrGIDNumber   = "gidNumber"
	attrMemberUID   = "memberUid"
)

const (
	phoneDelimiter  = ","
	packedDelimiter = "|"
)

// Config carries the schema constants stamped onto encoded entries.
type Config struct {
	UserClasses  []string
	GroupClasses []string
	GroupGID     string
}

// Codec performs the bidirectional entity/attribute conversion. Conversions
// are deterministic and preserve the order of multi-valued fields.
type Codec struct {
	cfg Config
	log hclog.Logger
}

// New returns a codec using the given schema constants.
func New(cfg Config, log hclog.Logger) *Codec {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Codec{cfg: cfg, log: log}
}

// UserToAttributes projects a user onto its directory attribute set. The
// entity id travels in the description attribute; the password is included
// only when set, stored as an opaque string.
func (c *Codec) UserToAttributes(u *model.User) model.Attributes {
	attrs := model.Attributes{}
	attrs[attrObjectClass] = append([]string(nil), c.cfg.UserClasses...)
	attrs.Add(attrUID, u.UserName)
	attrs.Add(attrSurname, u.Name.FamilyName)
	attrs.Add(attrGivenName, u.Name.GivenName)
	attrs.Add(attrDisplayName, u.Name.Formatted)
	attrs.Add(attrDescription, u.ID)
	if u.Password != "" {
		attrs.Add(attrPassword, u.Password)
	}
	for _, num := range u.PhoneNumbers {
		attrs.Add(attrPhone, strings.Join([]string{
			num.Value, strconv.FormatBool(num.Primary), num.Type,
		}, phoneDelimiter))
	}
	for _, email := range u.Emails {
		attrs.Add(attrMail, strings.Join([]string{
			email.Value, email.Type, strconv.FormatBool(email.Primary),
		}, packedDelimiter))
	}
	return attrs
}

// UserFromAttributes reconstructs a user from a directory attribute set.
//
// Malformed packed entries (wrong segment count) are dropped: each yields a
// FormatError in the aggregated return error, while the rest of the entity
// still decodes. Only a missing uid or description attribute fails the whole
// record, since without them the entity cannot be keyed. Decoded users are
// always active; deactivated users have no directory entry at all.
func (c *Codec) UserFromAttributes(attrs model.Attributes) (*model.User, error) {
	if !attrs.Has(attrUID) {
		return nil, &model.FormatError{Field: attrUID, Reason: "required attribute missing"}
	}
	if !attrs.Has(attrDescription) {
		return nil, &model.FormatError{Field: attrDescription, Reason: "required attribute missing"}
	}

	user := &model.User{
		ID:       attrs.First(attrDescription),
		UserName: attrs.First(attrUID),
		Name: model.Name{
			Formatted:  attrs.First(attrDisplayName),
			GivenName:  attrs.First(attrGivenName),
			FamilyName: attrs.First(attrSurname),
		},
		Active:   true,
		Password: attrs.First(attrPassword),
	}

	var merr *multierror.Error
	for _, raw := range attrs[attrPhone] {
		parts := strings.Split(raw, phoneDelimiter)
		if len(parts) < 3 {
			ferr := &model.FormatError{Field: attrPhone, Raw: raw, Reason: "expected 3 segments"}
			c.log.Error("skipping malformed packed value",
				"field", attrPhone, "raw", raw, "user_id", user.ID)
			merr = multierror.Append(merr, ferr)
			continue
		}
		user.PhoneNumbers = append(user.PhoneNumbers, model.PhoneNumber{
			Value:   parts[0],
			Primary: parts[1] == "true",
			Type:    parts[2],
		})
	}
	for _, raw := range attrs[attrMail] {
		parts := strings.Split(raw, packedDelimiter)
		if len(parts) < 3 {
			ferr := &model.FormatError{Field: attrMail, Raw: raw, Reason: "expected 3 segments"}
			c.log.Error("skipping malformed packed value",
				"field", attrMail, "raw", raw, "user_id", user.ID)
			merr = multierror.Append(merr, ferr)
			continue
		}
		user.Emails = append(user.Emails, model.Email{
			Value:   parts[0],
			Type:    parts[1],
			Primary: parts[2] == "true",
		})
	}

	return user, merr.ErrorOrNil()
}

// GroupToAttributes projects a group onto its directory attribute set.
func (c *Codec) GroupToAttributes(g *model.Group) model.Attributes {
	attrs := model.Attributes{}
	attrs[attrObjectClass] = append([]string(nil), c.cfg.GroupClasses...)
	attrs.Add(attrCommonName, g.DisplayName)
	attrs.Add(attrDescription, g.ID)
	attrs.Add(attrGIDNumber, c.cfg.GroupGID)
	for _, m := range g.Members {
		attrs.Add(attrMemberUID, m.Value+packedDelimiter+m.Display)
	}
	return attrs
}

// GroupFromAttributes reconstructs a group from a directory attribute set,
// with the same per-entry containment as UserFromAttributes: malformed
// membership entries are dropped and reported, a missing cn or description
// fails the record.
func (c *Codec) GroupFromAttributes(attrs model.Attributes) (*model.Group, error) {
	if !attrs.Has(attrCommonName) {
		return nil, &model.FormatError{Field: attrCommonName, Reason: "required attribute missing"}
	}
	if !attrs.Has(attrDescription) {
		return nil, &model.FormatError{Field: attrDescription, Reason: "required attribute missing"}
	}

	group := &model.Group{
		ID:          attrs.First(attrDescription),
		DisplayName: attrs.First(attrCommonName),
	}

	var merr *multierror.Error
	for _, raw := range attrs[attrMemberUID] {
		parts := strings.Split(raw, packedDelimiter)
		if len(parts) < 2 {
			ferr := &model.FormatError{Field: attrMemberUID, Raw: raw, Reason: "expected 2 segments"}
			c.log.Error("skipping malformed packed value",
				"field", attrMemberUID, "raw", raw, "group_id", group.ID)
			merr = multierror.Append(merr, ferr)
			continue
		}
		group.Members = append(group.Members, model.Membership{
			Value:   parts[0],
			Display: parts[1],
		})
	}

	return group, merr.ErrorOrNil()
}
