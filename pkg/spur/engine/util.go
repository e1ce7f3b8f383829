package engine

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/solana/token"
	"github.com/spur-grants/grant-server/pkg/spur/common"
)

func decodePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding string as base58")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.New("value is not an ed25519 public key")
	}
	return decoded, nil
}

func (e *Engine) getMint(mint *common.Account) (*token.Mint, error) {
	accountInfo, err := e.client.GetAccountInfo(mint.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "error getting mint account")
	}

	var mintState token.Mint
	if !mintState.Unmarshal(accountInfo.Data) {
		return nil, errors.New("account is not an spl token mint")
	}
	if !mintState.IsInitialized {
		return nil, errors.New("mint is not initialized")
	}

	return &mintState, nil
}

// ensureAssociatedAccount derives the owner's ATA for the provided mint,
// along with an instruction creating it when it doesn't exist on chain yet.
func (e *Engine) ensureAssociatedAccount(owner *common.Account, mint ed25519.PublicKey) (ed25519.PublicKey, []solana.Instruction, error) {
	ata, err := token.GetAssociatedAccount(owner.PublicKey().ToBytes(), mint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving associated token account")
	}

	_, err = e.client.GetAccountInfo(ata, solana.CommitmentFinalized)
	switch err {
	case nil:
		return ata, nil, nil
	case solana.ErrNoAccountInfo:
		instruction, _, err := token.CreateAssociatedTokenAccount(
			owner.PublicKey().ToBytes(),
			owner.PublicKey().ToBytes(),
			mint,
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "error building create ata instruction")
		}
		return ata, []solana.Instruction{instruction}, nil
	default:
		return nil, nil, errors.Wrap(err, "error getting associated token account")
	}
}

// submit assembles, signs and submits a transaction, blocking until the
// finalized commitment level.
func (e *Engine) submit(payer *common.Account, instructions []solana.Instruction, signers ...*common.Account) (solana.Signature, error) {
	var sig solana.Signature

	txn := solana.NewTransaction(payer.PublicKey().ToBytes(), instructions...)

	blockhash, err := e.client.GetLatestBlockhash()
	if err != nil {
		return sig, errors.Wrap(err, "error getting latest blockhash")
	}
	txn.SetBlockhash(blockhash)

	privateKeys := make([]ed25519.PrivateKey, len(signers))
	for i, signer := range signers {
		privateKey, err := signer.ToPrivateKey()
		if err != nil {
			return sig, errors.Wrapf(err, "signer %s cannot sign", signer.PublicKey().ToBase58())
		}
		privateKeys[i] = privateKey
	}

	if err := txn.Sign(privateKeys...); err != nil {
		return sig, errors.Wrap(err, "error signing transaction")
	}

	sig, err = e.client.SubmitTransaction(txn, solana.CommitmentFinalized)
	if err != nil {
		return sig, errors.Wrap(err, "error submitting transaction")
	}
	return sig, nil
}
