package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
)

func RunTests(t *testing.T, s grant.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s grant.Store){
		testHappyPath,
		testOptionGrantRecords,
		testGetAllBySender,
		testGetAllByRecipient,
		testGetCountByState,
	} {
		tf(t, s)
		teardown()
	}
}

func newTestRecord(i int) *grant.Record {
	return &grant.Record{
		Address: fmt.Sprintf("grant%d", i),

		Authority:     "authority",
		AuthorityBump: 254,

		Mint: "mint",

		Sender:    fmt.Sprintf("sender%d", i),
		Recipient: fmt.Sprintf("recipient%d", i),

		EscrowTokenAccount: fmt.Sprintf("escrow%d", i),

		AmountTotal:     480_000,
		IssuedAt:        1640995200,
		DurationSec:     126144000,
		CliffSec:        31536000,
		VestIntervalSec: 2592000,

		Slot: uint64(123456 + i),
	}
}

func testHappyPath(t *testing.T, s grant.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		start := time.Now()

		ctx := context.Background()

		expected := newTestRecord(0)
		cloned := expected.Clone()

		// Validate the record initially doesn't exist

		_, err := s.GetByAddress(ctx, expected.Address)
		assert.Equal(t, grant.ErrGrantNotFound, err)

		_, err = s.GetByEscrow(ctx, expected.EscrowTokenAccount)
		assert.Equal(t, grant.ErrGrantNotFound, err)

		// Save the record

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.LastUpdatedAt.After(start))

		// Ensure we can fetch the same record by all supported indices

		actual, err := s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		actual, err = s.GetByEscrow(ctx, expected.EscrowTokenAccount)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		initialSlot := expected.Slot

		// Update the record's unlock state

		previousLastUpdatedTs := expected.LastUpdatedAt

		expected.LastUnlockAt = time.Now().Unix()
		expected.AmountUnlocked = 120_000

		// Try to save the record with old blockchain data, which should fail

		expected.Slot = initialSlot - 1
		time.Sleep(time.Millisecond)
		err = s.Save(ctx, expected)
		assert.Equal(t, grant.ErrStaleGrantState, err)
		assert.Equal(t, previousLastUpdatedTs, expected.LastUpdatedAt)

		// Save the record with new blockchain data

		expected.Slot = initialSlot + 1
		cloned = expected.Clone()
		time.Sleep(time.Millisecond)
		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.LastUpdatedAt.After(previousLastUpdatedTs))

		// Ensure we can fetch the updated record by all supported indices

		actual, err = s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		actual, err = s.GetByEscrow(ctx, expected.EscrowTokenAccount)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		// Revocation is part of the mutable state

		expected.Revoked = true
		expected.Slot += 1
		cloned = expected.Clone()
		require.NoError(t, s.Save(ctx, expected))

		actual, err = s.GetByAddress(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.Equal(t, spur.GrantStateRevoked, actual.State())

		// A different grant can never reuse an escrow account

		conflicting := newTestRecord(1)
		conflicting.EscrowTokenAccount = expected.EscrowTokenAccount
		assert.Equal(t, grant.ErrInvalidGrant, s.Save(ctx, conflicting))
	})
}

func testOptionGrantRecords(t *testing.T, s grant.Store) {
	t.Run("testOptionGrantRecords", func(t *testing.T) {
		ctx := context.Background()

		plainRecord := newTestRecord(0)
		require.NoError(t, s.Save(ctx, plainRecord))

		optionMarket := "option_market"
		optionRecord := newTestRecord(1)
		optionRecord.OptionMarket = &optionMarket
		require.NoError(t, s.Save(ctx, optionRecord))

		actual, err := s.GetByAddress(ctx, plainRecord.Address)
		require.NoError(t, err)
		assert.False(t, actual.IsOptionGrant())
		assert.Nil(t, actual.OptionMarket)

		actual, err = s.GetByAddress(ctx, optionRecord.Address)
		require.NoError(t, err)
		assert.True(t, actual.IsOptionGrant())
		require.NotNil(t, actual.OptionMarket)
		assert.Equal(t, optionMarket, *actual.OptionMarket)
	})
}

func testGetAllBySender(t *testing.T, s grant.Store) {
	t.Run("testGetAllBySender", func(t *testing.T) {
		ctx := context.Background()

		var expected []*grant.Record
		for i := 0; i < 100; i++ {
			record := newTestRecord(i)
			record.Sender = "common_sender"

			require.NoError(t, s.Save(ctx, record))

			expected = append(expected, record.Clone())
		}

		_, err := s.GetAllBySender(ctx, "unknown_sender", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, grant.ErrGrantNotFound, err)

		var cursor query.Cursor
		var actual []*grant.Record
		for {
			records, err := s.GetAllBySender(ctx, "common_sender", cursor, 10, query.Ascending)
			if err == grant.ErrGrantNotFound {
				break
			}
			assert.Len(t, records, 10)

			actual = append(actual, records...)
			cursor = query.ToCursor(records[len(records)-1].Id)
		}

		require.Len(t, actual, 100)
		for i, record := range expected {
			assertEquivalentRecords(t, record, actual[i])
		}

		cursor = query.EmptyCursor
		actual = nil
		for {
			records, err := s.GetAllBySender(ctx, "common_sender", cursor, 10, query.Descending)
			if err == grant.ErrGrantNotFound {
				break
			}
			assert.Len(t, records, 10)

			actual = append(actual, records...)
			cursor = query.ToCursor(records[len(records)-1].Id)
		}

		require.Len(t, actual, 100)
		for i, record := range expected {
			assertEquivalentRecords(t, record, actual[len(actual)-i-1])
		}
	})
}

func testGetAllByRecipient(t *testing.T, s grant.Store) {
	t.Run("testGetAllByRecipient", func(t *testing.T) {
		ctx := context.Background()

		var expected []*grant.Record
		for i := 0; i < 25; i++ {
			record := newTestRecord(i)
			record.Recipient = "common_recipient"

			require.NoError(t, s.Save(ctx, record))

			expected = append(expected, record.Clone())
		}

		// A record for someone else shouldn't show up in the results
		other := newTestRecord(100)
		require.NoError(t, s.Save(ctx, other))

		_, err := s.GetAllByRecipient(ctx, "unknown_recipient", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, grant.ErrGrantNotFound, err)

		var cursor query.Cursor
		var actual []*grant.Record
		for {
			records, err := s.GetAllByRecipient(ctx, "common_recipient", cursor, 10, query.Ascending)
			if err == grant.ErrGrantNotFound {
				break
			}

			actual = append(actual, records...)
			cursor = query.ToCursor(records[len(records)-1].Id)
		}

		require.Len(t, actual, 25)
		for i, record := range expected {
			assertEquivalentRecords(t, record, actual[i])
		}
	})
}

func testGetCountByState(t *testing.T, s grant.Store) {
	t.Run("testGetCountByState", func(t *testing.T) {
		ctx := context.Background()

		for i, state := range []spur.GrantState{
			spur.GrantStateActive,
			spur.GrantStateActive,
			spur.GrantStateActive,
			spur.GrantStateFullyUnlocked,
			spur.GrantStateFullyUnlocked,
			spur.GrantStateRevoked,
		} {
			record := newTestRecord(i)
			switch state {
			case spur.GrantStateFullyUnlocked:
				record.AmountUnlocked = record.AmountTotal
			case spur.GrantStateRevoked:
				record.Revoked = true
			}

			require.NoError(t, s.Save(ctx, record))
		}

		count, err := s.GetCountByState(ctx, spur.GrantStateActive)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = s.GetCountByState(ctx, spur.GrantStateFullyUnlocked)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = s.GetCountByState(ctx, spur.GrantStateRevoked)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *grant.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)

	assert.Equal(t, obj1.Authority, obj2.Authority)
	assert.Equal(t, obj1.AuthorityBump, obj2.AuthorityBump)

	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.EqualValues(t, obj1.OptionMarket, obj2.OptionMarket)

	assert.Equal(t, obj1.Sender, obj2.Sender)
	assert.Equal(t, obj1.Recipient, obj2.Recipient)

	assert.Equal(t, obj1.EscrowTokenAccount, obj2.EscrowTokenAccount)

	assert.Equal(t, obj1.AmountTotal, obj2.AmountTotal)
	assert.Equal(t, obj1.IssuedAt, obj2.IssuedAt)
	assert.Equal(t, obj1.DurationSec, obj2.DurationSec)
	assert.Equal(t, obj1.CliffSec, obj2.CliffSec)
	assert.Equal(t, obj1.VestIntervalSec, obj2.VestIntervalSec)

	assert.Equal(t, obj1.LastUnlockAt, obj2.LastUnlockAt)
	assert.Equal(t, obj1.AmountUnlocked, obj2.AmountUnlocked)
	assert.Equal(t, obj1.Revoked, obj2.Revoked)

	assert.Equal(t, obj1.Slot, obj2.Slot)
}
