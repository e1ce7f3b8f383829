package grant

import (
	"context"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
)

type Store interface {
	// Save saves a grant's state
	Save(ctx context.Context, record *Record) error

	// GetByAddress gets a grant by its account address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetByEscrow gets a grant by its escrow token account address
	GetByEscrow(ctx context.Context, escrow string) (*Record, error)

	// GetAllBySender gets all grants issued by the provided sender wallet
	GetAllBySender(ctx context.Context, sender string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAllByRecipient gets all grants issued to the provided recipient wallet
	GetAllByRecipient(ctx context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetCountByState gets the count of records in the provided state
	GetCountByState(ctx context.Context, state spur.GrantState) (uint64, error)
}
