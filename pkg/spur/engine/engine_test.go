package engine

import (
	"context"
	"crypto/ed25519"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spur-grants/grant-server/pkg/database/query"
	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/psyoptions"
	"github.com/spur-grants/grant-server/pkg/solana/spur"
	"github.com/spur-grants/grant-server/pkg/solana/system"
	"github.com/spur-grants/grant-server/pkg/solana/token"
	"github.com/spur-grants/grant-server/pkg/spur/common"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
	grant_memory "github.com/spur-grants/grant-server/pkg/spur/data/grant/memory"
	"github.com/spur-grants/grant-server/pkg/spur/options"
)

const testDecimals = 6

type testEnv struct {
	ctx     context.Context
	data    grant.Store
	client  *fakeSolanaClient
	adapter *fakeOptionsAdapter
	engine  *Engine

	mint      *common.Account
	sender    *common.Account
	recipient *common.Account
}

func setup(t *testing.T) *testEnv {
	client := newFakeSolanaClient()
	adapter := newFakeOptionsAdapter()
	data := grant_memory.New()

	env := &testEnv{
		ctx:     context.Background(),
		data:    data,
		client:  client,
		adapter: adapter,
		engine:  New(data, client, adapter),

		mint:      newTestAccount(t),
		sender:    newTestAccount(t),
		recipient: newTestAccount(t),
	}

	mintState := token.Mint{
		MintAuthority: env.sender.PublicKey().ToBytes(),
		Supply:        1_000_000_000_000,
		Decimals:      testDecimals,
		IsInitialized: true,
	}
	client.setAccount(env.mint.PublicKey().ToBytes(), mintState.Marshal(), token.ProgramKey)

	// Sender starts with 1,000 whole tokens.
	senderTokenAccount, err := env.sender.ToAssociatedTokenAccount(env.mint)
	require.NoError(t, err)
	client.setBalance(senderTokenAccount.PublicKey().ToBytes(), 1_000_000_000)

	return env
}

func newTestAccount(t *testing.T) *common.Account {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	return account
}

func defaultCreateParams(env *testEnv) *CreateGrantParams {
	return &CreateGrantParams{
		Sender:    env.sender,
		Recipient: env.recipient,
		Mint:      env.mint,

		AmountTokens: 100,

		DurationSec:     100,
		CliffSec:        10,
		VestIntervalSec: 10,
	}
}

func TestCreateGrant_Plain(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	record, sig, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	assert.EqualValues(t, 100_000_000, record.AmountTotal)
	assert.Equal(t, env.sender.PublicKey().ToBase58(), record.Sender)
	assert.Equal(t, env.recipient.PublicKey().ToBase58(), record.Recipient)
	assert.Equal(t, env.mint.PublicKey().ToBase58(), record.Mint)
	assert.Nil(t, record.OptionMarket)
	assert.Equal(t, spur.GrantStateActive, record.State())

	cached, err := env.data.GetByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, record.Address, cached.Address)

	// Escrow setup, funding transfer and grant init land in one transaction.
	require.Len(t, env.client.submitted, 1)
	txn := env.client.submitted[0]
	require.Len(t, txn.Message.Instructions, 4)

	escrow, err := decodePublicKey(record.EscrowTokenAccount)
	require.NoError(t, err)
	authority, err := decodePublicKey(record.Authority)
	require.NoError(t, err)
	senderTokenAccount, err := env.sender.ToAssociatedTokenAccount(env.mint)
	require.NoError(t, err)

	created, err := system.DecompileCreateAccount(txn.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, env.sender.PublicKey().ToBytes(), created.Funder)
	assert.Equal(t, escrow, created.Address)
	assert.Equal(t, token.ProgramKey, created.Owner)
	assert.EqualValues(t, token.AccountSize, created.Size)

	command, err := token.GetCommand(txn.Message, 1)
	require.NoError(t, err)
	assert.Equal(t, token.CommandInitializeAccount, command)

	initialized, err := token.DecompileInitializeAccount(txn.Message, 1)
	require.NoError(t, err)
	assert.Equal(t, escrow, initialized.Account)
	assert.EqualValues(t, env.mint.PublicKey().ToBytes(), initialized.Mint)
	assert.Equal(t, authority, initialized.Owner)

	command, err = token.GetCommand(txn.Message, 2)
	require.NoError(t, err)
	assert.Equal(t, token.CommandTransfer, command)

	transfer, err := token.DecompileTransfer(txn.Message, 2)
	require.NoError(t, err)
	assert.EqualValues(t, senderTokenAccount.PublicKey().ToBytes(), transfer.Source)
	assert.Equal(t, escrow, transfer.Destination)
	assert.EqualValues(t, env.sender.PublicKey().ToBytes(), transfer.Owner)
	assert.EqualValues(t, 100_000_000, transfer.Amount)

	args, accounts, err := spur.InitGrantInstructionFromLegacyInstruction(txn, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 100_000_000, args.AmountTotal)
	assert.EqualValues(t, 100, args.DurationSec)
	assert.EqualValues(t, 10, args.CliffSec)
	assert.EqualValues(t, 10, args.VestIntervalSec)
	assert.EqualValues(t, env.recipient.PublicKey().ToBytes(), args.Recipient)
	assert.Nil(t, args.OptionMarket)
	assert.EqualValues(t, env.sender.PublicKey().ToBytes(), accounts.SenderWallet)
	assert.EqualValues(t, env.mint.PublicKey().ToBytes(), accounts.Mint)
}

func TestCreateGrant_Options(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	params.AsOptions = true

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	// Option grants are denominated in whole contracts.
	assert.EqualValues(t, 100, record.AmountTotal)
	require.NotNil(t, record.OptionMarket)
	assert.True(t, record.IsOptionGrant())

	market, ok := env.adapter.markets[*record.OptionMarket]
	require.True(t, ok)
	assert.EqualValues(t, env.mint.PublicKey().ToBytes(), market.Terms.UnderlyingMint)
	assert.Equal(t, psyoptions.WRAPPED_SOL_MINT, market.Terms.QuoteMint)

	assert.Equal(t, 1, env.adapter.ensureCalls)
	assert.Equal(t, 1, env.adapter.initializedMarkets)
	assert.Equal(t, 1, env.adapter.mintCalls)
	assert.EqualValues(t, 100, env.adapter.lastMintSize)

	// A second grant in the same month reuses the market.
	other, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)
	assert.Equal(t, *record.OptionMarket, *other.OptionMarket)
	assert.Equal(t, 2, env.adapter.ensureCalls)
	assert.Equal(t, 1, env.adapter.initializedMarkets)
}

func TestCreateGrant_Validation(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	params.AmountTokens = 0
	_, _, err := env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidAmount, err)

	params = defaultCreateParams(env)
	params.VestIntervalSec = params.DurationSec + 1
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidSchedule, err)

	params = defaultCreateParams(env)
	params.CliffSec = params.DurationSec
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidSchedule, err)

	params = defaultCreateParams(env)
	params.AmountTokens = 1_001 // sender only holds 1,000
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInsufficientFunds, err)

	// Scaling the grant to base units must not wrap around.
	params = defaultCreateParams(env)
	params.AmountTokens = math.MaxUint64 / 2
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidAmount, err)

	params = defaultCreateParams(env)
	params.Recipient = nil
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidAccount, err)

	params = defaultCreateParams(env)
	params.Mint = nil
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Equal(t, ErrInvalidAccount, err)

	publicOnlySender, err := common.NewAccountFromPublicKey(env.sender.PublicKey())
	require.NoError(t, err)
	params = defaultCreateParams(env)
	params.Sender = publicOnlySender
	_, _, err = env.engine.CreateGrant(env.ctx, params)
	assert.Error(t, err)

	assert.Empty(t, env.client.submitted)
}

func TestGrantLifecycle_MissingAccount(t *testing.T) {
	env := setup(t)

	record, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)

	// The requester account is validated before anything else happens.
	_, _, err = env.engine.UnlockGrant(env.ctx, record.Address, nil)
	assert.Equal(t, ErrInvalidAccount, err)

	_, _, err = env.engine.RevokeGrant(env.ctx, record.Address, nil)
	assert.Equal(t, ErrInvalidAccount, err)

	_, _, err = env.engine.ExerciseGrant(env.ctx, record.Address, nil)
	assert.Equal(t, ErrInvalidAccount, err)

	cached, err := env.data.GetByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.False(t, cached.Revoked)
	assert.Zero(t, cached.AmountUnlocked)
}

func TestUnlockGrant_HappyPath(t *testing.T) {
	env := setup(t)

	// Five full intervals elapsed, safely inside the sixth.
	params := defaultCreateParams(env)
	params.IssuedAt = time.Now().Unix() - 55

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	claimed, sig, err := env.engine.UnlockGrant(env.ctx, record.Address, env.recipient)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.EqualValues(t, 50_000_000, claimed)

	cached, err := env.data.GetByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 50_000_000, cached.AmountUnlocked)
	assert.Equal(t, spur.GrantStateActive, cached.State())

	// Nothing new is claimable within the same interval.
	submitted := len(env.client.submitted)
	claimed, _, err = env.engine.UnlockGrant(env.ctx, record.Address, env.recipient)
	require.NoError(t, err)
	assert.Zero(t, claimed)
	assert.Len(t, env.client.submitted, submitted)
}

func TestUnlockGrant_FullyVested(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	params.IssuedAt = time.Now().Unix() - 200

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	claimed, _, err := env.engine.UnlockGrant(env.ctx, record.Address, env.recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 100_000_000, claimed)

	cached, err := env.data.GetByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, spur.GrantStateFullyUnlocked, cached.State())
}

func TestUnlockGrant_BeforeCliff(t *testing.T) {
	env := setup(t)

	record, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)

	submitted := len(env.client.submitted)
	claimed, _, err := env.engine.UnlockGrant(env.ctx, record.Address, env.recipient)
	require.NoError(t, err)
	assert.Zero(t, claimed)
	assert.Len(t, env.client.submitted, submitted)
}

func TestUnlockGrant_Errors(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	params.IssuedAt = time.Now().Unix() - 200

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	_, _, err = env.engine.UnlockGrant(env.ctx, record.Address, env.sender)
	assert.Equal(t, ErrNotRecipient, err)

	_, _, err = env.engine.RevokeGrant(env.ctx, record.Address, env.sender)
	require.NoError(t, err)

	_, _, err = env.engine.UnlockGrant(env.ctx, record.Address, env.recipient)
	assert.Equal(t, ErrGrantRevoked, err)
}

func TestRevokeGrant_Plain(t *testing.T) {
	env := setup(t)

	record, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)

	escrow, err := decodePublicKey(record.EscrowTokenAccount)
	require.NoError(t, err)
	env.client.setBalance(escrow, record.AmountTotal)

	_, _, err = env.engine.RevokeGrant(env.ctx, record.Address, env.recipient)
	assert.Equal(t, ErrNotSender, err)

	reclaimed, sig, err := env.engine.RevokeGrant(env.ctx, record.Address, env.sender)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.Equal(t, record.AmountTotal, reclaimed)

	cached, err := env.data.GetByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.True(t, cached.Revoked)
	assert.Equal(t, spur.GrantStateRevoked, cached.State())

	// Revocation is terminal.
	_, _, err = env.engine.RevokeGrant(env.ctx, record.Address, env.sender)
	assert.Equal(t, ErrGrantRevoked, err)
}

func TestRevokeGrant_OptionsClosePosition(t *testing.T) {
	env := setup(t)

	params := defaultCreateParams(env)
	params.AsOptions = true

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	escrow, err := decodePublicKey(record.EscrowTokenAccount)
	require.NoError(t, err)
	env.client.setBalance(escrow, 40)

	reclaimed, _, err := env.engine.RevokeGrant(env.ctx, record.Address, env.sender)
	require.NoError(t, err)
	assert.EqualValues(t, 40, reclaimed)

	// The reclaimed contracts are closed out in the same transaction.
	assert.Equal(t, 1, env.adapter.closeCalls)
	assert.EqualValues(t, 40, env.adapter.lastCloseSize)
}

func TestExerciseGrant(t *testing.T) {
	env := setup(t)

	plain, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)

	_, _, err = env.engine.ExerciseGrant(env.ctx, plain.Address, env.recipient)
	assert.Equal(t, ErrNotOptionGrant, err)

	params := defaultCreateParams(env)
	params.AsOptions = true

	record, _, err := env.engine.CreateGrant(env.ctx, params)
	require.NoError(t, err)

	_, _, err = env.engine.ExerciseGrant(env.ctx, record.Address, env.sender)
	assert.Equal(t, ErrNotRecipient, err)

	// Nothing unlocked into the recipient's wallet yet.
	_, _, err = env.engine.ExerciseGrant(env.ctx, record.Address, env.recipient)
	assert.Equal(t, ErrNothingToExercise, err)

	market := env.adapter.markets[*record.OptionMarket]
	optionTokenAccount, err := token.GetAssociatedAccount(env.recipient.PublicKey().ToBytes(), market.OptionMint)
	require.NoError(t, err)
	env.client.setBalance(optionTokenAccount, 30)

	exercised, sig, err := env.engine.ExerciseGrant(env.ctx, record.Address, env.recipient)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.EqualValues(t, 30, exercised)
	assert.Equal(t, 1, env.adapter.exerciseCalls)
	assert.EqualValues(t, 30, env.adapter.lastExerciseSize)
}

func TestGetGrant_ChainFallback(t *testing.T) {
	env := setup(t)

	grantAccount := newTestAccount(t)
	state := newTestGrantAccount(t, env, time.Now().Unix()-100)
	env.client.setAccount(grantAccount.PublicKey().ToBytes(), state.Marshal(), spur.PROGRAM_ID)

	record, err := env.engine.GetGrant(env.ctx, grantAccount.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, env.sender.PublicKey().ToBase58(), record.Sender)
	assert.Equal(t, env.recipient.PublicKey().ToBase58(), record.Recipient)
	assert.Equal(t, state.AmountTotal, record.AmountTotal)

	// Now cached.
	cached, err := env.data.GetByAddress(env.ctx, grantAccount.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, record.Address, cached.Address)

	_, err = env.engine.GetGrant(env.ctx, newTestAccount(t).PublicKey().ToBase58())
	assert.Equal(t, grant.ErrGrantNotFound, err)
}

func TestGetGrantsBySender_ChainFallback(t *testing.T) {
	env := setup(t)

	newer := newTestGrantAccount(t, env, time.Now().Unix()-100)
	older := newTestGrantAccount(t, env, time.Now().Unix()-200)
	foreign := newTestGrantAccount(t, env, time.Now().Unix()-100)
	foreign.Sender = newTestAccount(t).PublicKey().ToBytes()

	newerAddress := newTestAccount(t).PublicKey().ToBytes()
	olderAddress := newTestAccount(t).PublicKey().ToBytes()

	// An account that passes the memcmp filter but isn't a grant.
	invalid := make([]byte, spur.GrantAccountSize)
	copy(invalid[spur.SenderOffset:], env.sender.PublicKey().ToBytes())

	env.client.addProgramAccount(newerAddress, newer.Marshal())
	env.client.addProgramAccount(olderAddress, older.Marshal())
	env.client.addProgramAccount(newTestAccount(t).PublicKey().ToBytes(), foreign.Marshal())
	env.client.addProgramAccount(newTestAccount(t).PublicKey().ToBytes(), invalid)
	env.client.programSlot = 42

	records, err := env.engine.GetGrantsBySender(env.ctx, env.sender.PublicKey().ToBase58())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by issuance, oldest first.
	assert.Equal(t, base58.Encode(olderAddress), records[0].Address)
	assert.Equal(t, base58.Encode(newerAddress), records[1].Address)

	// The scan refreshed the store.
	cached, err := env.data.GetByAddress(env.ctx, base58.Encode(newerAddress))
	require.NoError(t, err)
	assert.EqualValues(t, 42, cached.Slot)
}

func TestGetGrantsByRecipient_ChainFallback(t *testing.T) {
	env := setup(t)

	first := newTestGrantAccount(t, env, time.Now().Unix()-300)
	second := newTestGrantAccount(t, env, time.Now().Unix()-200)
	second.Sender = newTestAccount(t).PublicKey().ToBytes()

	env.client.addProgramAccount(newTestAccount(t).PublicKey().ToBytes(), first.Marshal())
	env.client.addProgramAccount(newTestAccount(t).PublicKey().ToBytes(), second.Marshal())
	env.client.programSlot = 7

	// Both grants pay the same recipient, regardless of sender.
	records, err := env.engine.GetGrantsByRecipient(env.ctx, env.recipient.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestGetGrantsBySender_FromStore(t *testing.T) {
	env := setup(t)

	newer := defaultCreateParams(env)
	newer.IssuedAt = time.Now().Unix() - 100

	older := defaultCreateParams(env)
	older.IssuedAt = time.Now().Unix() - 200

	newerRecord, _, err := env.engine.CreateGrant(env.ctx, newer)
	require.NoError(t, err)
	olderRecord, _, err := env.engine.CreateGrant(env.ctx, older)
	require.NoError(t, err)

	records, err := env.engine.GetGrantsBySender(env.ctx, env.sender.PublicKey().ToBase58())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, olderRecord.Address, records[0].Address)
	assert.Equal(t, newerRecord.Address, records[1].Address)

	count, err := env.engine.GetGrantCountByState(env.ctx, spur.GrantStateActive)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGetGrantsBySender_Paged(t *testing.T) {
	env := setup(t)

	first, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)
	second, _, err := env.engine.CreateGrant(env.ctx, defaultCreateParams(env))
	require.NoError(t, err)

	sender := env.sender.PublicKey().ToBase58()

	page, err := env.engine.GetGrantsBySender(env.ctx, sender, query.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.Address, page[0].Address)

	page, err = env.engine.GetGrantsBySender(env.ctx, sender,
		query.WithLimit(1),
		query.WithCursor(query.ToCursor(page[0].Id)),
	)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.Address, page[0].Address)

	// A cursor past the last record is an exhausted page, not a chain scan.
	_, err = env.engine.GetGrantsBySender(env.ctx, sender,
		query.WithCursor(query.ToCursor(page[0].Id)),
	)
	assert.Equal(t, grant.ErrGrantNotFound, err)

	_, err = env.engine.GetGrantsBySender(env.ctx, sender, query.WithLimit(10_000))
	assert.Equal(t, query.ErrQueryNotSupported, err)
}

func newTestGrantAccount(t *testing.T, env *testEnv, issuedAt int64) *spur.GrantAccount {
	authority, bump, err := spur.GetAuthorityAddress()
	require.NoError(t, err)

	return &spur.GrantAccount{
		Sender:        env.sender.PublicKey().ToBytes(),
		Recipient:     env.recipient.PublicKey().ToBytes(),
		Authority:     authority,
		AuthorityBump: bump,
		Mint:          env.mint.PublicKey().ToBytes(),

		AmountTotal:     100_000_000,
		IssuedAt:        issuedAt,
		DurationSec:     100,
		CliffSec:        10,
		VestIntervalSec: 10,

		EscrowTokenAccount: newTestAccount(t).PublicKey().ToBytes(),
	}
}

type fakeSolanaClient struct {
	mu sync.Mutex

	accounts map[string]solana.AccountInfo
	balances map[string]uint64

	programAccounts []solana.ProgramAccount
	programSlot     uint64

	submitted []solana.Transaction
}

func newFakeSolanaClient() *fakeSolanaClient {
	return &fakeSolanaClient{
		accounts: make(map[string]solana.AccountInfo),
		balances: make(map[string]uint64),
	}
}

func (c *fakeSolanaClient) setAccount(key ed25519.PublicKey, data []byte, owner ed25519.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[base58.Encode(key)] = solana.AccountInfo{
		Data:  data,
		Owner: owner,
	}
}

func (c *fakeSolanaClient) setBalance(key ed25519.PublicKey, balance uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.balances[base58.Encode(key)] = balance
}

func (c *fakeSolanaClient) addProgramAccount(key ed25519.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.programAccounts = append(c.programAccounts, solana.ProgramAccount{
		PublicKey: key,
		Data:      data,
	})
}

func (c *fakeSolanaClient) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if info, ok := c.accounts[base58.Encode(key)]; ok {
		return info, nil
	}
	return solana.AccountInfo{}, solana.ErrNoAccountInfo
}

func (c *fakeSolanaClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return 2_039_280, nil
}

func (c *fakeSolanaClient) GetLatestBlockhash() (solana.Blockhash, error) {
	var bh solana.Blockhash
	bh[0] = 1
	return bh, nil
}

func (c *fakeSolanaClient) GetTokenAccountBalance(key ed25519.PublicKey) (uint64, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if balance, ok := c.balances[base58.Encode(key)]; ok {
		return balance, c.programSlot, nil
	}
	return 0, 0, solana.ErrNoBalance
}

func (c *fakeSolanaClient) GetFilteredProgramAccounts(_ ed25519.PublicKey, offset uint, filterValue []byte) ([]solana.ProgramAccount, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res []solana.ProgramAccount
	for _, account := range c.programAccounts {
		if len(account.Data) < int(offset)+len(filterValue) {
			continue
		}
		if string(account.Data[offset:int(offset)+len(filterValue)]) == string(filterValue) {
			res = append(res, account)
		}
	}
	return res, c.programSlot, nil
}

func (c *fakeSolanaClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitted = append(c.submitted, txn)

	var sig solana.Signature
	copy(sig[:], txn.Signature())
	return sig, nil
}

type fakeOptionsAdapter struct {
	markets map[string]*options.Market

	ensureCalls        int
	initializedMarkets int

	mintCalls    int
	lastMintSize uint64

	exerciseCalls    int
	lastExerciseSize uint64

	closeCalls    int
	lastCloseSize uint64
}

func newFakeOptionsAdapter() *fakeOptionsAdapter {
	return &fakeOptionsAdapter{
		markets: make(map[string]*options.Market),
	}
}

func (a *fakeOptionsAdapter) EnsureMarket(_ context.Context, payer *common.Account, terms *options.MarketTerms) (*options.Market, []solana.Instruction, error) {
	a.ensureCalls++

	address, bump, err := psyoptions.GetOptionMarketAddress(&psyoptions.GetOptionMarketAddressArgs{
		UnderlyingAssetMint:         terms.UnderlyingMint,
		QuoteAssetMint:              terms.QuoteMint,
		UnderlyingAmountPerContract: terms.UnderlyingAmountPerContract,
		QuoteAmountPerContract:      terms.QuoteAmountPerContract,
		ExpirationUnixTimestamp:     terms.ExpirationUnixTimestamp,
	})
	if err != nil {
		return nil, nil, err
	}

	if market, ok := a.markets[base58.Encode(address)]; ok {
		return market, nil, nil
	}

	a.initializedMarkets++

	market := &options.Market{
		Address: address,
		Bump:    bump,

		OptionMint:      newRandomKey(),
		WriterTokenMint: newRandomKey(),

		UnderlyingAssetPool: newRandomKey(),
		QuoteAssetPool:      newRandomKey(),
		MintFeeAccount:      newRandomKey(),
		ExerciseFeeAccount:  newRandomKey(),

		Terms: *terms,
	}
	a.markets[base58.Encode(address)] = market

	init := solana.NewInstruction(
		psyoptions.PROGRAM_ID,
		[]byte("initialize_market"),
		solana.NewAccountMeta(payer.PublicKey().ToBytes(), true),
	)
	return market, []solana.Instruction{init}, nil
}

func (a *fakeOptionsAdapter) GetMarket(_ context.Context, address ed25519.PublicKey) (*options.Market, error) {
	if market, ok := a.markets[base58.Encode(address)]; ok {
		return market, nil
	}
	return nil, errors.New("market not found")
}

func (a *fakeOptionsAdapter) MintContracts(_ *options.Market, minter *common.Account, _, _, _ ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	a.mintCalls++
	a.lastMintSize = size

	instruction := solana.NewInstruction(
		psyoptions.PROGRAM_ID,
		[]byte("mint_option"),
		solana.NewAccountMeta(minter.PublicKey().ToBytes(), true),
	)
	return []solana.Instruction{instruction}, nil
}

func (a *fakeOptionsAdapter) ExerciseContracts(_ *options.Market, exerciser *common.Account, _, _, _ ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	a.exerciseCalls++
	a.lastExerciseSize = size

	instruction := solana.NewInstruction(
		psyoptions.PROGRAM_ID,
		[]byte("exercise_option"),
		solana.NewAccountMeta(exerciser.PublicKey().ToBytes(), true),
	)
	return []solana.Instruction{instruction}, nil
}

func (a *fakeOptionsAdapter) ClosePosition(_ *options.Market, closer *common.Account, _, _, _ ed25519.PublicKey, size uint64) ([]solana.Instruction, error) {
	a.closeCalls++
	a.lastCloseSize = size

	instruction := solana.NewInstruction(
		psyoptions.PROGRAM_ID,
		[]byte("close_position"),
		solana.NewAccountMeta(closer.PublicKey().ToBytes(), true),
	)
	return []solana.Instruction{instruction}, nil
}

func newRandomKey() ed25519.PublicKey {
	pub, _, _ := ed25519.GenerateKey(nil)
	return pub
}
