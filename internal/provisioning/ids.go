package provisioning

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Default counter bases for sequence mode.
const (
	UserIDBase  = 100
	GroupIDBase = 1000
)

// IDGenerator assigns provider-visible identifiers to new entities. The
// active generator is chosen once at startup.
type IDGenerator interface {
	NextUserID() string
	NextGroupID() string
}

// RandomIDs generates opaque random tokens.
type RandomIDs struct{}

func (RandomIDs) NextUserID() string  { return uuid.NewString() }
func (RandomIDs) NextGroupID() string { return uuid.NewString() }

// SequenceIDs generates monotonically increasing per-kind identifiers
// starting at the configured bases. Safe for concurrent use.
type SequenceIDs struct {
	nextUser  atomic.Int64
	nextGroup atomic.Int64
}

// NewSequenceIDs returns a generator with users starting at UserIDBase and
// groups at GroupIDBase.
func NewSequenceIDs() *SequenceIDs {
	s := &SequenceIDs{}
	s.nextUser.Store(UserIDBase)
	s.nextGroup.Store(GroupIDBase)
	return s
}

func (s *SequenceIDs) NextUserID() string {
	return strconv.FormatInt(s.nextUser.Add(1)-1, 10)
}

func (s *SequenceIDs) NextGroupID() string {
	return strconv.FormatInt(s.nextGroup.Add(1)-1, 10)
}
