package memory

import (
	"sync/atomic"

	"livevote/contexts/elections/voting-engine/domain/entities"
	"livevote/contexts/elections/voting-engine/ports"
)

// SearchSlot remembers the most recently searched voter for the whole
// process. Concurrent writers race and the last one wins.
type SearchSlot struct {
	current atomic.Pointer[entities.Voter]
}

func NewSearchSlot() *SearchSlot {
	return &SearchSlot{}
}

func (s *SearchSlot) Set(voter entities.Voter) {
	s.current.Store(&voter)
}

func (s *SearchSlot) Get() (entities.Voter, bool) {
	voter := s.current.Load()
	if voter == nil {
		return entities.Voter{}, false
	}
	return *voter, true
}

var _ ports.SearchSlot = (*SearchSlot)(nil)
