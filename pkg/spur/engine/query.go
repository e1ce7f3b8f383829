package engine

import (
	"context"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
)

// GetGrant loads a grant record, preferring the local store and falling
// back to the blockchain on a miss. Chain state found this way is cached.
func (e *Engine) GetGrant(ctx context.Context, address string) (*grant.Record, error) {
	record, err := e.data.GetByAddress(ctx, address)
	if err == nil {
		return record, nil
	}
	if err != grant.ErrGrantNotFound {
		return nil, err
	}

	accountKey, err := decodePublicKey(address)
	if err != nil {
		return nil, err
	}

	accountInfo, err := e.client.GetAccountInfo(accountKey, solana.CommitmentFinalized)
	if err == solana.ErrNoAccountInfo {
		return nil, grant.ErrGrantNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting grant account")
	}

	var state spur.GrantAccount
	if err := state.Unmarshal(accountInfo.Data); err != nil {
		return nil, errors.Wrap(err, "account is not a grant account")
	}

	// The account info RPC doesn't surface the observation slot, so the
	// record enters the cache at the lowest slot a chain observation can
	// have. Any later program account scan supersedes it.
	record = grant.NewRecordFromProgramAccount(address, &state, 1)
	if err := e.data.Save(ctx, record); err != nil && err != grant.ErrStaleGrantState {
		e.log.WithError(err).Warn("failed to cache grant record from chain")
	}

	return record, nil
}

// GetGrantsBySender gets cached grants issued by the sender wallet, falling
// back to a program account scan when the store has none. Callers page with
// query.WithCursor/WithLimit/WithDirection; each page is returned sorted by
// issuance time ascending.
func (e *Engine) GetGrantsBySender(ctx context.Context, sender string, opts ...query.Option) ([]*grant.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	records, err := e.data.GetAllBySender(ctx, sender, req.Cursor, req.Limit, req.SortBy)
	if err == grant.ErrGrantNotFound {
		// A cursor past the last record is an exhausted page, not a miss.
		if len(req.Cursor) > 0 {
			return nil, err
		}
		return e.FindGrantsBySenderOnChain(ctx, sender)
	} else if err != nil {
		return nil, err
	}

	sortByIssuedAt(records)
	return records, nil
}

// GetGrantsByRecipient gets cached grants issued to the recipient wallet,
// falling back to a program account scan when the store has none. Paging
// works the same way as GetGrantsBySender.
func (e *Engine) GetGrantsByRecipient(ctx context.Context, recipient string, opts ...query.Option) ([]*grant.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	records, err := e.data.GetAllByRecipient(ctx, recipient, req.Cursor, req.Limit, req.SortBy)
	if err == grant.ErrGrantNotFound {
		if len(req.Cursor) > 0 {
			return nil, err
		}
		return e.FindGrantsByRecipientOnChain(ctx, recipient)
	} else if err != nil {
		return nil, err
	}

	sortByIssuedAt(records)
	return records, nil
}

// FindGrantsBySenderOnChain scans the program's accounts for grants issued
// by the sender wallet and refreshes the store with what it finds.
func (e *Engine) FindGrantsBySenderOnChain(ctx context.Context, sender string) ([]*grant.Record, error) {
	return e.findGrantsOnChain(ctx, spur.SenderOffset, sender)
}

// FindGrantsByRecipientOnChain scans the program's accounts for grants
// issued to the recipient wallet and refreshes the store with what it finds.
func (e *Engine) FindGrantsByRecipientOnChain(ctx context.Context, recipient string) ([]*grant.Record, error) {
	return e.findGrantsOnChain(ctx, spur.RecipientOffset, recipient)
}

func (e *Engine) findGrantsOnChain(ctx context.Context, offset uint, wallet string) ([]*grant.Record, error) {
	log := e.log.WithField("method", "findGrantsOnChain")

	walletKey, err := decodePublicKey(wallet)
	if err != nil {
		return nil, err
	}

	accounts, slot, err := e.client.GetFilteredProgramAccounts(spur.PROGRAM_ID, offset, walletKey)
	if err != nil {
		return nil, errors.Wrap(err, "error getting filtered program accounts")
	}

	records := make([]*grant.Record, 0, len(accounts))
	for _, account := range accounts {
		var state spur.GrantAccount
		if err := state.Unmarshal(account.Data); err != nil {
			log.WithError(err).
				WithField("account", base58.Encode(account.PublicKey)).
				Warn("skipping program account that isn't a grant")
			continue
		}

		record := grant.NewRecordFromProgramAccount(base58.Encode(account.PublicKey), &state, slot)
		if err := e.data.Save(ctx, record); err != nil && err != grant.ErrStaleGrantState {
			return nil, errors.Wrap(err, "error saving grant record")
		}

		records = append(records, record)
	}

	sortByIssuedAt(records)
	return records, nil
}

// GetGrantCountByState gets the count of cached grants in the given state.
func (e *Engine) GetGrantCountByState(ctx context.Context, state spur.GrantState) (uint64, error) {
	return e.data.GetCountByState(ctx, state)
}

func sortByIssuedAt(records []*grant.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt < records[j].IssuedAt
	})
}
