package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/spur-grants/grant-server/pkg/solana"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
	"github.com/spur-grants/grant-server/pkg/spur/options"
)

// Engine drives the grant lifecycle: creating grants, unlocking vested
// tokens, revoking unvested remainders, and exercising option grants. It
// keeps the local grant store in sync with submitted transactions and
// falls back to the blockchain when the store misses.
type Engine struct {
	log     *logrus.Entry
	data    grant.Store
	client  solana.Client
	options options.Adapter
}

func New(data grant.Store, client solana.Client, optionsAdapter options.Adapter) *Engine {
	return &Engine{
		log:     logrus.StandardLogger().WithField("type", "spur/engine"),
		data:    data,
		client:  client,
		options: optionsAdapter,
	}
}
