package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/spur-grants/grant-server/pkg/retry"
	"github.com/spur-grants/grant-server/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

var (
	ErrNoAccountInfo = errors.New("no account info")
	ErrNoBalance     = errors.New("no balance")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type TokenAmount struct {
	Amount   string `json:"amount"`   // example: "49801500000",
	Decimals uint64 `json:"decimals"` // example: 5,
}

// ProgramAccount is a program-owned account returned by a filtered
// program account scan, along with its raw data.
type ProgramAccount struct {
	PublicKey ed25519.PublicKey
	Data      []byte
}

// Client provides an interaction with the Solana JSON RPC API, narrowed to
// the calls the grant engine makes.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetLatestBlockhash() (Blockhash, error)
	GetTokenAccountBalance(ed25519.PublicKey) (balance, slot uint64, err error)
	GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]ProgramAccount, uint64, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Error("rate limited")
		return errRateLimited
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		return errServiceError
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetLatestBlockhash() (hash Blockhash, err error) {
	// To avoid having thrashing around a similar periodic interval, we
	// randomize when we refresh our block hash.
	window := time.Duration(float64(2*time.Second) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}

	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	var resp struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value TokenAmount `json:"value"`
	}
	if err := c.call(&resp, "getTokenAccountBalance", base58.Encode(account[:]), CommitmentFinalized); err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			return 0, 0, errors.Wrapf(err, "getTokenAccountBalance() failed to send request")
		}

		if jsonRPCErr.Code == invalidParamCode {
			return 0, 0, ErrNoBalance
		}

		return 0, 0, errors.Wrapf(err, "getTokenAccountBalance() failed to send request")
	}

	quarks, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, errors.Errorf("invalid value in response")
	}

	return quarks, uint64(resp.Context.Slot), nil
}

func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]
	txnBytes := txn.Marshal()

	config := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		SkipPreflight:       false,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	if err := c.call(&sigStr, "sendTransaction", base58.Encode(txnBytes), config); err != nil {
		return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
	}

	return sig, nil
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment Commitment `json:"commitment"`
		Encoding   string     `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]ProgramAccount, uint64, error) {
	type memcmpFilter struct {
		Offset uint   `json:"offset"`
		Bytes  string `json:"bytes"`
	}

	type filter struct {
		Memcmp memcmpFilter `json:"memcmp"`
	}

	config := struct {
		Commitment  string   `json:"commitment"`
		Encoding    string   `json:"encoding"`
		Filters     []filter `json:"filters"`
		WithContext bool     `json:"withContext"`
	}{
		Commitment: confirmationStatusFinalized,
		Encoding:   "base64",
		Filters: []filter{
			{
				Memcmp: memcmpFilter{
					Offset: offset,
					Bytes:  base58.Encode(filterValue),
				},
			},
		},
		WithContext: true,
	}

	var resp struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value []struct {
			PubKey  string `json:"pubkey"`
			Account struct {
				Data []string `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(&resp, "getProgramAccounts", base58.Encode(program), config); err != nil {
		return nil, 0, err
	}

	var res []ProgramAccount
	for _, result := range resp.Value {
		pub, err := base58.Decode(result.PubKey)
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid base58 encoded account in response")
		}

		data, err := base64.StdEncoding.DecodeString(result.Account.Data[0])
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid base64 encoded account data in response")
		}

		res = append(res, ProgramAccount{
			PublicKey: pub,
			Data:      data,
		})
	}
	return res, uint64(resp.Context.Slot), nil
}
