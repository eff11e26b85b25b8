package id

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator creates opaque session identifiers.
type Generator interface {
	New() string
}

// UUID issues time-ordered v7 identifiers so history entries sort by creation.
type UUID struct{}

func (UUID) New() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}

// Sequence issues Prefix-1, Prefix-2, ... and is safe for concurrent use.
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

func (s *Sequence) New() string {
	return s.Prefix + "-" + strconv.FormatInt(s.n.Add(1), 10)
}
