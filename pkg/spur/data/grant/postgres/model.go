package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/spur-grants/grant-server/pkg/database/postgres"
	q "github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
)

const (
	tableName = "grantserver__core_grant"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`

	Authority     string `db:"authority"`
	AuthorityBump uint   `db:"authority_bump"`

	Mint         string         `db:"mint"`
	OptionMarket sql.NullString `db:"option_market"`

	Sender    string `db:"sender"`
	Recipient string `db:"recipient"`

	EscrowTokenAccount string `db:"escrow_token_account"`

	AmountTotal     uint64 `db:"amount_total"`
	IssuedAt        int64  `db:"issued_at"`
	DurationSec     uint64 `db:"duration_sec"`
	CliffSec        uint64 `db:"cliff_sec"`
	VestIntervalSec uint64 `db:"vest_interval_sec"`

	LastUnlockAt   int64  `db:"last_unlock_at"`
	AmountUnlocked uint64 `db:"amount_unlocked"`
	Revoked        bool   `db:"revoked"`

	Slot uint64 `db:"slot"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

const allColumns = `id, address, authority, authority_bump, mint, option_market, sender, recipient, escrow_token_account, amount_total, issued_at, duration_sec, cliff_sec, vest_interval_sec, last_unlock_at, amount_unlocked, revoked, slot, last_updated_at`

func toModel(obj *grant.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	var optionMarket sql.NullString
	if obj.OptionMarket != nil {
		optionMarket.Valid = true
		optionMarket.String = *obj.OptionMarket
	}

	return &model{
		Address: obj.Address,

		Authority:     obj.Authority,
		AuthorityBump: uint(obj.AuthorityBump),

		Mint:         obj.Mint,
		OptionMarket: optionMarket,

		Sender:    obj.Sender,
		Recipient: obj.Recipient,

		EscrowTokenAccount: obj.EscrowTokenAccount,

		AmountTotal:     obj.AmountTotal,
		IssuedAt:        obj.IssuedAt,
		DurationSec:     obj.DurationSec,
		CliffSec:        obj.CliffSec,
		VestIntervalSec: obj.VestIntervalSec,

		LastUnlockAt:   obj.LastUnlockAt,
		AmountUnlocked: obj.AmountUnlocked,
		Revoked:        obj.Revoked,

		Slot: obj.Slot,

		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *grant.Record {
	var optionMarket *string
	if obj.OptionMarket.Valid {
		value := obj.OptionMarket.String
		optionMarket = &value
	}

	return &grant.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,

		Authority:     obj.Authority,
		AuthorityBump: uint8(obj.AuthorityBump),

		Mint:         obj.Mint,
		OptionMarket: optionMarket,

		Sender:    obj.Sender,
		Recipient: obj.Recipient,

		EscrowTokenAccount: obj.EscrowTokenAccount,

		AmountTotal:     obj.AmountTotal,
		IssuedAt:        obj.IssuedAt,
		DurationSec:     obj.DurationSec,
		CliffSec:        obj.CliffSec,
		VestIntervalSec: obj.VestIntervalSec,

		LastUnlockAt:   obj.LastUnlockAt,
		AmountUnlocked: obj.AmountUnlocked,
		Revoked:        obj.Revoked,

		Slot: obj.Slot,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, authority, authority_bump, mint, option_market, sender, recipient, escrow_token_account, amount_total, issued_at, duration_sec, cliff_sec, vest_interval_sec, last_unlock_at, amount_unlocked, revoked, slot, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)

			ON CONFLICT (address)
			DO UPDATE
				SET last_unlock_at = $14, amount_unlocked = $15, revoked = $16, slot = $17, last_updated_at = $18
				WHERE ` + tableName + `.address = $1 AND ` + tableName + `.slot < $17

			RETURNING ` + allColumns

		m.LastUpdatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,

			m.Address,

			m.Authority,
			m.AuthorityBump,

			m.Mint,
			m.OptionMarket,

			m.Sender,
			m.Recipient,

			m.EscrowTokenAccount,

			m.AmountTotal,
			m.IssuedAt,
			m.DurationSec,
			m.CliffSec,
			m.VestIntervalSec,

			m.LastUnlockAt,
			m.AmountUnlocked,
			m.Revoked,

			m.Slot,

			m.LastUpdatedAt.UTC(),
		).StructScan(m)

		// A conflicting escrow account is a different grant reusing an
		// escrow, not an update of this one.
		err = pgutil.CheckUniqueViolation(err, grant.ErrInvalidGrant)
		return pgutil.CheckNoRows(err, grant.ErrStaleGrantState)
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, grant.ErrGrantNotFound)
	}
	return res, nil
}

func dbGetByEscrow(ctx context.Context, db *sqlx.DB, escrow string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE escrow_token_account = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, escrow)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, grant.ErrGrantNotFound)
	}
	return res, nil
}

func dbGetAllBySender(ctx context.Context, db *sqlx.DB, sender string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (sender = $1)
	`

	opts := []interface{}{sender}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, grant.ErrGrantNotFound)
	}

	if len(res) == 0 {
		return nil, grant.ErrGrantNotFound
	}
	return res, nil
}

func dbGetAllByRecipient(ctx context.Context, db *sqlx.DB, recipient string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (recipient = $1)
	`

	opts := []interface{}{recipient}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, grant.ErrGrantNotFound)
	}

	if len(res) == 0 {
		return nil, grant.ErrGrantNotFound
	}
	return res, nil
}

// Grant state is derived from the mutable unlock fields, so each state maps
// to a SQL predicate rather than a column.
func stateFilter(state spur.GrantState) string {
	switch state {
	case spur.GrantStateRevoked:
		return `revoked`
	case spur.GrantStateFullyUnlocked:
		return `NOT revoked AND amount_unlocked >= amount_total`
	case spur.GrantStateActive:
		return `NOT revoked AND amount_unlocked < amount_total`
	default:
		return `FALSE`
	}
}

func dbGetCountByState(ctx context.Context, db *sqlx.DB, state spur.GrantState) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + ` WHERE ` + stateFilter(state)
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}

	return res, nil
}
