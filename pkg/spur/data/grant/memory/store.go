package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
)

type store struct {
	mu      sync.Mutex
	records []*grant.Record
	last    uint64
}

type ById []*grant.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory grant.Store
func New() grant.Store {
	return &store{}
}

// Save implements grant.Store.Save
func (s *store) Save(_ context.Context, data *grant.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.find(data); item != nil {
		if data.Slot <= item.Slot {
			return grant.ErrStaleGrantState
		}

		// Only the mutable unlock state changes after creation.
		item.LastUnlockAt = data.LastUnlockAt
		item.AmountUnlocked = data.AmountUnlocked
		item.Revoked = data.Revoked

		item.Slot = data.Slot

		item.LastUpdatedAt = time.Now()

		item.CopyTo(data)
	} else {
		if item := s.findByEscrow(data.EscrowTokenAccount); item != nil {
			return grant.ErrInvalidGrant
		}

		if data.Id == 0 {
			data.Id = s.last
		}
		data.LastUpdatedAt = time.Now()
		c := data.Clone()
		s.records = append(s.records, c)
	}

	return nil
}

// GetByAddress implements grant.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*grant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		return item.Clone(), nil
	}
	return nil, grant.ErrGrantNotFound
}

// GetByEscrow implements grant.Store.GetByEscrow
func (s *store) GetByEscrow(_ context.Context, escrow string) (*grant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByEscrow(escrow); item != nil {
		return item.Clone(), nil
	}
	return nil, grant.ErrGrantNotFound
}

// GetAllBySender implements grant.Store.GetAllBySender
func (s *store) GetAllBySender(_ context.Context, sender string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*grant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items := s.findBySender(sender); len(items) > 0 {
		res := s.filter(items, cursor, limit, direction)

		if len(res) == 0 {
			return nil, grant.ErrGrantNotFound
		}

		return res, nil
	}

	return nil, grant.ErrGrantNotFound
}

// GetAllByRecipient implements grant.Store.GetAllByRecipient
func (s *store) GetAllByRecipient(_ context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*grant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items := s.findByRecipient(recipient); len(items) > 0 {
		res := s.filter(items, cursor, limit, direction)

		if len(res) == 0 {
			return nil, grant.ErrGrantNotFound
		}

		return res, nil
	}

	return nil, grant.ErrGrantNotFound
}

// GetCountByState implements grant.Store.GetCountByState
func (s *store) GetCountByState(_ context.Context, state spur.GrantState) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByState(state)
	return uint64(len(items)), nil
}

func (s *store) find(data *grant.Record) *grant.Record {
	for _, item := range s.records {
		if item.Id == data.Id {
			return item
		}
		if data.Address == item.Address {
			return item
		}
	}
	return nil
}

func (s *store) findByAddress(address string) *grant.Record {
	for _, item := range s.records {
		if address == item.Address {
			return item
		}
	}
	return nil
}

func (s *store) findByEscrow(escrow string) *grant.Record {
	for _, item := range s.records {
		if escrow == item.EscrowTokenAccount {
			return item
		}
	}
	return nil
}

func (s *store) findBySender(sender string) []*grant.Record {
	res := make([]*grant.Record, 0)
	for _, item := range s.records {
		if item.Sender == sender {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) findByRecipient(recipient string) []*grant.Record {
	res := make([]*grant.Record, 0)
	for _, item := range s.records {
		if item.Recipient == recipient {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) findByState(state spur.GrantState) []*grant.Record {
	res := make([]*grant.Record, 0)
	for _, item := range s.records {
		if item.State() == state {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*grant.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*grant.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*grant.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
