package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed grant.Store
func New(db *sql.DB) grant.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements grant.Store.Save
func (s *store) Save(ctx context.Context, record *grant.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByAddress implements grant.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*grant.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetByEscrow implements grant.Store.GetByEscrow
func (s *store) GetByEscrow(ctx context.Context, escrow string) (*grant.Record, error) {
	model, err := dbGetByEscrow(ctx, s.db, escrow)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllBySender implements grant.Store.GetAllBySender
func (s *store) GetAllBySender(ctx context.Context, sender string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*grant.Record, error) {
	res, err := dbGetAllBySender(ctx, s.db, sender, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	grants := make([]*grant.Record, len(res))
	for i, model := range res {
		grants[i] = fromModel(model)
	}
	return grants, nil
}

// GetAllByRecipient implements grant.Store.GetAllByRecipient
func (s *store) GetAllByRecipient(ctx context.Context, recipient string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*grant.Record, error) {
	res, err := dbGetAllByRecipient(ctx, s.db, recipient, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	grants := make([]*grant.Record, len(res))
	for i, model := range res {
		grants[i] = fromModel(model)
	}
	return grants, nil
}

// GetCountByState implements grant.Store.GetCountByState
func (s *store) GetCountByState(ctx context.Context, state spur.GrantState) (uint64, error) {
	return dbGetCountByState(ctx, s.db, state)
}
