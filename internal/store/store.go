// Package store holds the authoritative in-memory fee collection for the
// active filter scope. Reload commits are guarded by a generation token so a
// superseded reload can never overwrite a newer one's results.
package store

import (
	"sort"
	"sync"

	"github.com/noah-isme/sma-fee-sync/internal/collation"
	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// FeeStore is safe for concurrent use.
type FeeStore struct {
	mu         sync.RWMutex
	fees       []models.FeeRecord
	generation uint64
}

// NewFeeStore returns an empty store.
func NewFeeStore() *FeeStore {
	return &FeeStore{}
}

// Begin marks the start of a reload and returns the commit token for it.
// Starting a newer reload invalidates every earlier token.
func (s *FeeStore) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// ReplaceIfCurrent swaps the store contents for recs when token still belongs
// to the most recent reload. Stale commits are discarded and reported false.
// Contents are kept sorted ascending by class, then by student name.
func (s *FeeStore) ReplaceIfCurrent(token uint64, recs []models.FeeRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.generation {
		return false
	}

	copied := make([]models.FeeRecord, len(recs))
	copy(copied, recs)
	sortByClass(copied)
	s.fees = copied
	return true
}

// Patch merges the gateway-echoed fields onto the matching record in place,
// leaving every other field untouched.
func (s *FeeStore) Patch(id string, p models.FeePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fees {
		if s.fees[i].ID == id {
			s.fees[i].PaidAmount = p.PaidAmount
			s.fees[i].BalanceDue = p.BalanceDue
			s.fees[i].Status = p.Status
			s.fees[i].DateReceived = p.DateReceived
			return true
		}
	}
	return false
}

// Insert adds a newly created record, preserving the class ordering.
func (s *FeeStore) Insert(rec models.FeeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fees = append(s.fees, rec)
	sortByClass(s.fees)
}

// Remove drops exactly the given ids.
func (s *FeeStore) Remove(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.fees[:0]
	removed := 0
	for _, fee := range s.fees {
		if _, gone := drop[fee.ID]; gone {
			removed++
			continue
		}
		kept = append(kept, fee)
	}
	s.fees = kept
	return removed
}

// Find returns a copy of the record with the given id.
func (s *FeeStore) Find(id string) (models.FeeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fee := range s.fees {
		if fee.ID == id {
			return fee, true
		}
	}
	return models.FeeRecord{}, false
}

// Snapshot returns a copy of the current contents.
func (s *FeeStore) Snapshot() []models.FeeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]models.FeeRecord, len(s.fees))
	copy(copied, s.fees)
	return copied
}

// Len reports the number of records held.
func (s *FeeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fees)
}

func sortByClass(fees []models.FeeRecord) {
	sort.SliceStable(fees, func(i, j int) bool {
		if c := collation.Compare(fees[i].StudentClass, fees[j].StudentClass); c != 0 {
			return c < 0
		}
		return fees[i].StudentName < fees[j].StudentName
	})
}
