package filter

import (
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"

	"github.com/isometry/scimgate/internal/model"
)

// Engine evaluates filters against a sequence of indexed users. Unsupported
// filter shapes or fields yield an empty result with a diagnostic log entry;
// they never fail the query. Result order follows the input (index iteration)
// order of the user sequence.
type Engine struct {
	extensionURN string
	log          hclog.Logger
}

// NewEngine returns an engine recognizing custom attributes under the given
// extension URN.
func NewEngine(extensionURN string, log hclog.Logger) *Engine {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Engine{extensionURN: extensionURN, log: log}
}

// EvaluateUsers returns the users matching f.
func (e *Engine) EvaluateUsers(f Filter, users []*model.User) []*model.User {
	switch f.Type {
	case TypeEquality:
		return e.evaluateEquality(f, users)
	case TypeOr:
		return e.evaluateOr(f, users)
	default:
		e.log.Error("unsupported filter type", "type", int(f.Type))
		return nil
	}
}

// evaluateEquality handles equality filters on userName, id, name sub-
// attributes and custom-schema attributes. userName and id compare
// case-sensitively; custom attribute values compare case-insensitively.
func (e *Engine) evaluateEquality(f Filter, users []*model.User) []*model.User {
	var matched []*model.User
	for _, user := range users {
		if e.matchesEquality(f, user) {
			matched = append(matched, user)
		}
	}
	return matched
}

func (e *Engine) matchesEquality(f Filter, user *model.User) bool {
	switch {
	case strings.EqualFold(f.Path.Name, "userName"):
		return user.UserName != "" && user.UserName == f.Value

	case strings.EqualFold(f.Path.Name, "id"):
		return user.ID != "" && user.ID == f.Value

	case strings.EqualFold(f.Path.Name, "name"):
		// A name filter without a sub-attribute cannot match anything.
		switch {
		case strings.EqualFold(f.Path.SubName, "familyName"):
			return user.Name.FamilyName != "" && user.Name.FamilyName == f.Value
		case strings.EqualFold(f.Path.SubName, "givenName"):
			return user.Name.GivenName != "" && user.Name.GivenName == f.Value
		default:
			return false
		}

	case strings.EqualFold(f.Path.Schema, e.extensionURN):
		raw, ok := user.Custom[e.extensionURN]
		if !ok {
			return false
		}
		value := gjson.GetBytes(raw, f.Path.Name)
		return value.Exists() && strings.EqualFold(value.String(), f.Value)

	default:
		e.log.Error("unsupported equality filter field",
			"field", f.Path.Name, "schema", f.Path.Schema)
		return false
	}
}

// evaluateOr handles disjunctions. Each sub-filter is evaluated
// independently with email-matching semantics (the only field the
// disjunctive path supports): a user matches a sub-filter when any of its
// emails equals the value case-insensitively. The overall result is the
// concatenation of per-sub-filter matches and is not deduplicated, so a user
// matched by two sub-filters appears twice.
func (e *Engine) evaluateOr(f Filter, users []*model.User) []*model.User {
	var matched []*model.User
	for _, sub := range f.Sub {
		if !strings.EqualFold(sub.Path.Name, "email") {
			e.log.Error("unsupported field in disjunctive filter", "field", sub.Path.Name)
			continue
		}
		for _, user := range users {
			if userHasEmail(user, sub.Value) {
				matched = append(matched, user)
			}
		}
	}
	return matched
}

func userHasEmail(user *model.User, value string) bool {
	for _, email := range user.Emails {
		if strings.EqualFold(email.Value, value) {
			return true
		}
	}
	return false
}
