// Package index holds the in-memory authoritative store of users and groups.
//
// The index is the source of truth for all reads and queries; the directory
// is write-through, consulted only by the startup rebuild. Storage is a
// go-memdb instance, whose MVCC transactions provide the concurrency guard
// around mutation: mutating transactions are serialized internally and
// readers always see a consistent snapshot, so directory I/O never holds an
// index lock.
package index

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-memdb"

	"github.com/isometry/scimgate/internal/codec"
	"github.com/isometry/scimgate/internal/model"
)

// Index is the process-wide entity store. It lives for the whole process,
// is populated once by the startup rebuild and mutated on every successful
// provisioning operation.
type Index struct {
	db    *memdb.MemDB
	codec *codec.Codec
	log   hclog.Logger
}

// New returns an empty index decoding rebuild records through c.
func New(c *codec.Codec, log hclog.Logger) (*Index, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Index{db: db, codec: c, log: log}, nil
}

// GetUser returns the user with the given id.
func (ix *Index) GetUser(id string) (*model.User, error) {
	txn := ix.db.Txn(false)
	raw, err := txn.First(string(model.KindUser), PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &model.NotFoundError{Kind: model.KindUser, ID: id}
	}
	return raw.(*model.User), nil
}

// PutUser inserts or overwrites the user keyed by its id.
func (ix *Index) PutUser(u *model.User) error {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(string(model.KindUser), u); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// RemoveUser deletes and returns the user with the given id.
func (ix *Index) RemoveUser(id string) (*model.User, error) {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(string(model.KindUser), PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &model.NotFoundError{Kind: model.KindUser, ID: id}
	}
	user := raw.(*model.User)
	if err := txn.Delete(string(model.KindUser), user); err != nil {
		return nil, err
	}
	txn.Commit()
	return user, nil
}

// Users returns all indexed users in index iteration order.
func (ix *Index) Users() []*model.User {
	txn := ix.db.Txn(false)
	it, err := txn.Get(string(model.KindUser), PK)
	if err != nil {
		ix.log.Error("user iteration failed", "error", err)
		return nil
	}
	var users []*model.User
	for raw := it.Next(); raw != nil; raw = it.Next() {
		users = append(users, raw.(*model.User))
	}
	return users
}

// GetGroup returns the group with the given id.
func (ix *Index) GetGroup(id string) (*model.Group, error) {
	txn := ix.db.Txn(false)
	raw, err := txn.First(string(model.KindGroup), PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &model.NotFoundError{Kind: model.KindGroup, ID: id}
	}
	return raw.(*model.Group), nil
}

// PutGroup inserts or overwrites the group keyed by its id.
func (ix *Index) PutGroup(g *model.Group) error {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(string(model.KindGroup), g); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// RemoveGroup deletes and returns the group with the given id.
func (ix *Index) RemoveGroup(id string) (*model.Group, error) {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(string(model.KindGroup), PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &model.NotFoundError{Kind: model.KindGroup, ID: id}
	}
	group := raw.(*model.Group)
	if err := txn.Delete(string(model.KindGroup), group); err != nil {
		return nil, err
	}
	txn.Commit()
	return group, nil
}

// Groups returns all indexed groups in index iteration order.
func (ix *Index) Groups() []*model.Group {
	txn := ix.db.Txn(false)
	it, err := txn.Get(string(model.KindGroup), PK)
	if err != nil {
		ix.log.Error("group iteration failed", "error", err)
		return nil
	}
	var groups []*model.Group
	for raw := it.Next(); raw != nil; raw = it.Next() {
		groups = append(groups, raw.(*model.Group))
	}
	return groups
}

// RebuildUsers clears the user table and repopulates it from directory scan
// results. Records that fail to decode are logged and skipped; packed-entry
// format errors inside an otherwise decodable record are logged by the codec
// and do not drop the record.
func (ix *Index) RebuildUsers(sets []model.Attributes) error {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(string(model.KindUser), PK); err != nil {
		return err
	}
	loaded := 0
	for _, attrs := range sets {
		user, err := ix.codec.UserFromAttributes(attrs)
		if user == nil {
			ix.log.Error("skipping undecodable user record during rebuild", "error", err)
			continue
		}
		if err != nil {
			ix.log.Warn("user record decoded with dropped entries", "user_id", user.ID, "error", err)
		}
		if err := txn.Insert(string(model.KindUser), user); err != nil {
			return err
		}
		loaded++
	}
	txn.Commit()
	ix.log.Info("user index rebuilt", "records", len(sets), "loaded", loaded)
	return nil
}

// RebuildGroups clears the group table and repopulates it from directory scan
// results, with the same per-record error containment as RebuildUsers.
func (ix *Index) RebuildGroups(sets []model.Attributes) error {
	txn := ix.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(string(model.KindGroup), PK); err != nil {
		return err
	}
	loaded := 0
	for _, attrs := range sets {
		group, err := ix.codec.GroupFromAttributes(attrs)
		if group == nil {
			ix.log.Error("skipping undecodable group record during rebuild", "error", err)
			continue
		}
		if err != nil {
			ix.log.Warn("group record decoded with dropped entries", "group_id", group.ID, "error", err)
		}
		if err := txn.Insert(string(model.KindGroup), group); err != nil {
			return err
		}
		loaded++
	}
	txn.Commit()
	ix.log.Info("group index rebuilt", "records", len(sets), "loaded", loaded)
	return nil
}
