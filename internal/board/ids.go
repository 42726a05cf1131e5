package board

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Joseda-hg/lazyboard/internal/model"
)

// IDGenerator produces ids that are unique for the lifetime of the process.
type IDGenerator interface {
	NewID() model.ID
}

// UUIDGenerator issues random UUIDv4 strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() model.ID {
	return uuid.NewString()
}

// SequenceGenerator issues "<prefix><n>" ids with n counting up from 1.
type SequenceGenerator struct {
	Prefix string
	next   atomic.Int64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

func (g *SequenceGenerator) NewID() model.ID {
	return fmt.Sprintf("%s%d", g.Prefix, g.next.Add(1))
}
