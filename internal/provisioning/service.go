// Package provisioning exposes the connector's operation facade: CRUD and
// list/query for users and groups.
//
// Every mutation is write-through: the directory is updated first, then the
// index. A directory failure is logged and absorbed rather than rolled back,
// trading directory/index consistency for availability; the startup rebuild
// is the reconciliation path.
package provisioning

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/isometry/scimgate/internal/codec"
	"github.com/isometry/scimgate/internal/directory"
	"github.com/isometry/scimgate/internal/filter"
	"github.com/isometry/scimgate/internal/index"
	"github.com/isometry/scimgate/internal/model"
)

// Pagination carries the caller-requested page window. The start index is
// echoed in responses; result slicing is not applied — all matches are
// returned regardless of the requested count. Known limitation of the
// connector.
type Pagination struct {
	StartIndex int
	Count      int
}

// UserPage is a user list/query response.
type UserPage struct {
	TotalResults int
	StartIndex   int
	Users        []*model.User
}

// GroupPage is a group list response.
type GroupPage struct {
	TotalResults int
	StartIndex   int
	Groups       []*model.Group
}

// Service coordinates the index, codec and directory gateway, enforcing the
// operation preconditions (id assignment, duplicate checks).
type Service struct {
	idx    *index.Index
	codec  *codec.Codec
	gw     directory.Gateway
	engine *filter.Engine
	ids    IDGenerator
	log    hclog.Logger
}

// NewService wires a provisioning service from its collaborators.
func NewService(idx *index.Index, c *codec.Codec, gw directory.Gateway, engine *filter.Engine, ids IDGenerator, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{idx: idx, codec: c, gw: gw, engine: engine, ids: ids, log: log}
}

// CreateUser assigns an identifier, writes the directory entry and inserts
// the user into the index. The index insert happens regardless of the
// directory outcome. Username uniqueness is deliberately not enforced; only
// groups carry a duplicate check.
func (s *Service) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if s.idx == nil {
		return nil, &model.ManagementError{
			Code:    "o01234",
			Message: "cannot create the user: the index is unavailable",
			HelpURL: "https://github.com/isometry/scimgate#troubleshooting",
		}
	}

	user.ID = s.ids.NextUserID()
	s.log.Debug("creating user", "user_id", user.ID, "user_name", user.UserName)

	attrs := s.codec.UserToAttributes(user)
	if err := s.gw.CreateEntry(ctx, model.KindUser, user.UserName, attrs); err != nil {
		s.log.Error("directory create absorbed; index proceeds",
			"user_id", user.ID, "user_name", user.UserName, "error", err)
	}

	if err := s.idx.PutUser(user); err != nil {
		return nil, &model.ManagementError{Code: "o01234", Message: "cannot index the user", Cause: err}
	}
	return user, nil
}

// UpdateUser replaces the full entity under id. The directory entry for the
// old state is destroyed; a fresh entry is created only when the new state is
// active, so deactivated users remain in the index without a directory entry.
// The index is overwritten unconditionally.
func (s *Service) UpdateUser(ctx context.Context, id string, user *model.User) (*model.User, error) {
	if s.idx == nil {
		return nil, &model.ManagementError{
			Code:    "o12345",
			Message: "cannot update the user: the index is unavailable",
		}
	}

	existing, err := s.idx.GetUser(id)
	if err != nil {
		return nil, err
	}

	user.ID = id
	s.log.Debug("updating user", "user_id", id, "user_name", user.UserName, "active", user.Active)

	if err := s.gw.DeleteEntry(ctx, model.KindUser, existing.UserName); err != nil {
		s.log.Error("directory delete absorbed during update", "user_id", id, "error", err)
	}
	if user.Active {
		attrs := s.codec.UserToAttributes(user)
		if err := s.gw.CreateEntry(ctx, model.KindUser, user.UserName, attrs); err != nil {
			s.log.Error("directory create absorbed during update", "user_id", id, "error", err)
		}
	}

	if err := s.idx.PutUser(user); err != nil {
		return nil, &model.ManagementError{Code: "o12345", Message: "cannot index the user", Cause: err}
	}
	return user, nil
}

// GetUser returns the user with the given id.
func (s *Service) GetUser(_ context.Context, id string) (*model.User, error) {
	return s.idx.GetUser(id)
}

// ListUsers returns users matching f, or the whole index when f is nil.
// TotalResults reports the matched count; the start index is echoed without
// slicing the result.
func (s *Service) ListUsers(_ context.Context, page Pagination, f *filter.Filter) (*UserPage, error) {
	if s.idx == nil {
		return nil, &model.ManagementError{
			Code:    "o34567",
			Message: "cannot list users: the index is unavailable",
		}
	}

	users := s.idx.Users()
	if f != nil {
		users = s.engine.EvaluateUsers(*f, users)
	}
	return &UserPage{
		TotalResults: len(users),
		StartIndex:   page.StartIndex,
		Users:        users,
	}, nil
}

// CreateGroup rejects display names colliding case-insensitively with an
// existing group, then assigns an identifier, writes the directory entry and
// inserts the group into the index.
func (s *Service) CreateGroup(ctx context.Context, group *model.Group) (*model.Group, error) {
	if s.idx == nil {
		return nil, &model.ManagementError{
			Code:    "o23456",
			Message: "cannot create the group: the index is unavailable",
		}
	}

	for _, existing := range s.idx.Groups() {
		if strings.EqualFold(existing.DisplayName, group.DisplayName) {
			return nil, &model.DuplicateError{Kind: model.KindGroup, Name: group.DisplayName}
		}
	}

	group.ID = s.ids.NextGroupID()
	s.log.Debug("creating group", "group_id", group.ID, "display_name", group.DisplayName)

	attrs := s.codec.GroupToAttributes(group)
	if err := s.gw.CreateEntry(ctx, model.KindGroup, group.DisplayName, attrs); err != nil {
		s.log.Error("directory create absorbed; index proceeds",
			"group_id", group.ID, "display_name", group.DisplayName, "error", err)
	}

	if err := s.idx.PutGroup(group); err != nil {
		return nil, &model.ManagementError{Code: "o23456", Message: "cannot index the group", Cause: err}
	}
	return group, nil
}

// UpdateGroup replaces the full entity under id. The directory entry is
// destroyed under the old display name and re-created under the new one; the
// index is overwritten unconditionally.
func (s *Service) UpdateGroup(ctx context.Context, id string, group *model.Group) (*model.Group, error) {
	existing, err := s.idx.GetGroup(id)
	if err != nil {
		return nil, err
	}

	group.ID = id
	s.log.Debug("updating group", "group_id", id, "display_name", group.DisplayName)

	attrs := s.codec.GroupToAttributes(group)
	if err := s.gw.ReplaceEntry(ctx, model.KindGroup, existing.DisplayName, group.DisplayName, attrs); err != nil {
		s.log.Error("directory replace absorbed during update", "group_id", id, "error", err)
	}

	if err := s.idx.PutGroup(group); err != nil {
		return nil, &model.ManagementError{Code: "o23456", Message: "cannot index the group", Cause: err}
	}
	return group, nil
}

// GetGroup returns the group with the given id.
func (s *Service) GetGroup(_ context.Context, id string) (*model.Group, error) {
	return s.idx.GetGroup(id)
}

// ListGroups returns the full group index. Groups have no filter support.
func (s *Service) ListGroups(_ context.Context, page Pagination) (*GroupPage, error) {
	groups := s.idx.Groups()
	return &GroupPage{
		TotalResults: len(groups),
		StartIndex:   page.StartIndex,
		Groups:       groups,
	}, nil
}

// DeleteGroup removes the group from the index first, then attempts the
// directory delete using the removed group's display name. Delete is
// destructive; there is no soft-delete.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	group, err := s.idx.RemoveGroup(id)
	if err != nil {
		return err
	}

	s.log.Debug("deleting group", "group_id", id, "display_name", group.DisplayName)
	if err := s.gw.DeleteEntry(ctx, model.KindGroup, group.DisplayName); err != nil {
		s.log.Error("directory delete absorbed", "group_id", id, "error", err)
	}
	return nil
}

// Rebuild repopulates the index from full directory scans of both subtrees.
// Called once at startup, and usable as the reconciliation path after
// absorbed directory failures. Scan failures leave the affected table empty
// rather than aborting startup.
func (s *Service) Rebuild(ctx context.Context) error {
	var merr *multierror.Error

	userSets, err := s.gw.SearchEntries(ctx, model.KindUser)
	if err != nil {
		s.log.Error("user scan failed during rebuild", "error", err)
		merr = multierror.Append(merr, err)
	} else if err := s.idx.RebuildUsers(userSets); err != nil {
		merr = multierror.Append(merr, err)
	}

	groupSets, err := s.gw.SearchEntries(ctx, model.KindGroup)
	if err != nil {
		s.log.Error("group scan failed during rebuild", "error", err)
		merr = multierror.Append(merr, err)
	} else if err := s.idx.RebuildGroups(groupSets); err != nil {
		merr = multierror.Append(merr, err)
	}

	return merr.ErrorOrNil()
}
