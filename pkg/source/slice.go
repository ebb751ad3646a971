package source

import "github.com/jdziat/entrybatch/pkg/core"

// Slice is an in-memory RecordSource. Nil entries are gaps.
type Slice []*core.Record

// NewSlice builds a Slice and assigns each record its index.
func NewSlice(records ...*core.Record) Slice {
	s := make(Slice, len(records))
	for i, rec := range records {
		if rec != nil {
			rec.Index = i
		}
		s[i] = rec
	}
	return s
}

func (s Slice) Count() int { return len(s) }

func (s Slice) Get(i int) (*core.Record, bool) {
	if i < 0 || i >= len(s) || s[i] == nil {
		return nil, false
	}
	return s[i], true
}

// ChainsWith is false when either record is absent.
func (s Slice) ChainsWith(i int) bool {
	cur, ok := s.Get(i)
	if !ok {
		return false
	}
	next, ok := s.Get(i + 1)
	if !ok {
		return false
	}
	return cur.ChainsTo(next)
}

var _ core.RecordSource = Slice(nil)
