// Package directory performs entry mutations and scans against the backing
// LDAP service.
//
// Entry locations follow the connector's naming convention: a per-kind prefix
// concatenated with the entity's naming attribute (username for users,
// display name for groups) and the per-kind container below the base DN.
//
// Connection lifecycle is deliberately simple: one connection is opened per
// operation and closed immediately afterwards, with no pooling and no retry.
// Every operation is bounded by the configured timeout (or an earlier context
// deadline); expiry surfaces as a directory error.
package directory

import (
	"context"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/go-hclog"

	"github.com/isometry/scimgate/internal/model"
)

// Config holds the connection and naming parameters for the gateway.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string

	BaseDN      string
	UserDN      string
	GroupDN     string
	UserPrefix  string
	GroupPrefix string

	UserFilter  string
	GroupFilter string

	Timeout time.Duration
}

// Gateway is the directory-side mutation and scan contract used by the
// provisioning service and the startup rebuild.
type Gateway interface {
	// CreateEntry adds a new entry for the entity named by name.
	CreateEntry(ctx context.Context, kind model.Kind, name string, attrs model.Attributes) error

	// ReplaceEntry replaces the entry named oldName with one named newName.
	// It is implemented as delete-then-create; a failure between the two
	// steps leaves the directory without an entry. This non-atomic window is
	// an accepted limitation of the connector.
	ReplaceEntry(ctx context.Context, kind model.Kind, oldName, newName string, attrs model.Attributes) error

	// DeleteEntry removes the entry for the entity named by name.
	DeleteEntry(ctx context.Context, kind model.Kind, name string) error

	// SearchEntries scans the kind's subtree with the configured filter and
	// returns the attribute sets of all matching entries. Used only by the
	// startup rebuild.
	SearchEntries(ctx context.Context, kind model.Kind) ([]model.Attributes, error)
}

type gateway struct {
	cfg Config
	log hclog.Logger
}

// NewGateway returns a Gateway speaking to the directory described by cfg.
func NewGateway(cfg Config, log hclog.Logger) Gateway {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &gateway{cfg: cfg, log: log}
}

// EntryDN computes the distinguished name for an entity of the given kind.
// The naming attribute value is RFC 4514-escaped before concatenation.
func EntryDN(cfg Config, kind model.Kind, name string) string {
	switch kind {
	case model.KindGroup:
		return cfg.GroupPrefix + EscapeDNValue(name) + "," + cfg.GroupDN + cfg.BaseDN
	default:
		return cfg.UserPrefix + EscapeDNValue(name) + "," + cfg.UserDN + cfg.BaseDN
	}
}

func (g *gateway) EntryDN(kind model.Kind, name string) string {
	return EntryDN(g.cfg, kind, name)
}

// containerDN returns the subtree root scanned for the given kind.
func (g *gateway) containerDN(kind model.Kind) string {
	if kind == model.KindGroup {
		return g.cfg.GroupDN + g.cfg.BaseDN
	}
	return g.cfg.UserDN + g.cfg.BaseDN
}

func (g *gateway) searchFilter(kind model.Kind) string {
	if kind == model.KindGroup {
		return g.cfg.GroupFilter
	}
	return g.cfg.UserFilter
}

// connect dials and binds a fresh connection for a single operation. The
// caller must close it.
func (g *gateway) connect(ctx context.Context) (*ldap.Conn, error) {
	timeout := g.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	conn, err := ldap.DialURL(g.cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)

	if g.cfg.BindDN != "" {
		if err := conn.Bind(g.cfg.BindDN, g.cfg.BindPassword); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (g *gateway) CreateEntry(ctx context.Context, kind model.Kind, name string, attrs model.Attributes) error {
	dn := g.EntryDN(kind, name)

	conn, err := g.connect(ctx)
	if err != nil {
		return wrapError("create", dn, err)
	}
	defer conn.Close()

	req := ldap.NewAddRequest(dn, nil)
	for attr, values := range attrs {
		req.Attribute(attr, values)
	}

	if err := conn.Add(req); err != nil {
		g.log.Error("directory create failed",
			"kind", kind, "dn", dn, "category", Categorize(err), "error", err)
		return wrapError("create", dn, err)
	}

	g.log.Debug("directory entry created", "kind", kind, "dn", dn)
	return nil
}

func (g *gateway) ReplaceEntry(ctx context.Context, kind model.Kind, oldName, newName string, attrs model.Attributes) error {
	oldDN := g.EntryDN(kind, oldName)
	newDN := g.EntryDN(kind, newName)

	conn, err := g.connect(ctx)
	if err != nil {
		return wrapError("replace", oldDN, err)
	}
	defer conn.Close()

	if err := conn.Del(ldap.NewDelRequest(oldDN, nil)); err != nil {
		g.log.Error("directory delete during replace failed",
			"kind", kind, "dn", oldDN, "category", Categorize(err), "error", err)
		return wrapError("replace", oldDN, err)
	}

	req := ldap.NewAddRequest(newDN, nil)
	for attr, values := range attrs {
		req.Attribute(attr, values)
	}
	if err := conn.Add(req); err != nil {
		g.log.Error("directory create during replace failed",
			"kind", kind, "dn", newDN, "category", Categorize(err), "error", err)
		return wrapError("replace", newDN, err)
	}

	g.log.Debug("directory entry replaced", "kind", kind, "old_dn", oldDN, "new_dn", newDN)
	return nil
}

func (g *gateway) DeleteEntry(ctx context.Context, kind model.Kind, name string) error {
	dn := g.EntryDN(kind, name)

	conn, err := g.connect(ctx)
	if err != nil {
		return wrapError("delete", dn, err)
	}
	defer conn.Close()

	if err := conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		g.log.Error("directory delete failed",
			"kind", kind, "dn", dn, "category", Categorize(err), "error", err)
		return wrapError("delete", dn, err)
	}

	g.log.Debug("directory entry deleted", "kind", kind, "dn", dn)
	return nil
}

func (g *gateway) SearchEntries(ctx context.Context, kind model.Kind) ([]model.Attributes, error) {
	baseDN := g.containerDN(kind)

	conn, err := g.connect(ctx)
	if err != nil {
		return nil, wrapError("search", baseDN, err)
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(g.cfg.Timeout.Seconds()),
		false,
		g.searchFilter(kind),
		nil,
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		g.log.Error("directory search failed",
			"kind", kind, "base_dn", baseDN, "category", Categorize(err), "error", err)
		return nil, wrapError("search", baseDN, err)
	}

	sets := make([]model.Attributes, 0, len(result.Entries))
	for _, entry := range result.Entries {
		attrs := model.Attributes{}
		for _, attr := range entry.Attributes {
			attrs[attr.Name] = append([]string(nil), attr.Values...)
		}
		sets = append(sets, attrs)
	}

	g.log.Debug("directory scan complete", "kind", kind, "base_dn", baseDN, "entries", len(sets))
	return sets, nil
}
