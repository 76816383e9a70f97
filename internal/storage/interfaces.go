package storage

import (
	"context"
	"time"

	"futarchy-graph/internal/domain"
)

// DaoStore provides access to daos storage.
type DaoStore interface {
	// Upsert inserts or replaces daos by dao_acct.
	Upsert(ctx context.Context, daos []*domain.Dao) error

	// GetByAcct retrieves a dao. Returns ErrNotFound if not exists.
	GetByAcct(ctx context.Context, daoAcct string) (*domain.Dao, error)

	// List retrieves all daos ordered by dao_acct.
	List(ctx context.Context) ([]*domain.Dao, error)
}

// ProposalStore provides access to proposals storage.
type ProposalStore interface {
	// Upsert inserts or replaces proposals by proposal_acct.
	Upsert(ctx context.Context, proposals []*domain.Proposal) error

	// GetByAcct retrieves a proposal. Returns ErrNotFound if not exists.
	GetByAcct(ctx context.Context, proposalAcct string) (*domain.Proposal, error)

	// GetByDao retrieves the proposals of a dao ordered by proposal_num ASC.
	GetByDao(ctx context.Context, daoAcct string) ([]*domain.Proposal, error)

	// GetByStatus retrieves proposals in a status ordered by created_at ASC.
	GetByStatus(ctx context.Context, status domain.ProposalStatus) ([]*domain.Proposal, error)
}

// MarketStore provides access to markets storage.
type MarketStore interface {
	// Upsert inserts or replaces markets by market_acct.
	Upsert(ctx context.Context, markets []*domain.Market) error

	// GetByAcct retrieves a market. Returns ErrNotFound if not exists.
	GetByAcct(ctx context.Context, marketAcct string) (*domain.Market, error)

	// GetByProposal retrieves the markets of a proposal ordered by market_acct.
	GetByProposal(ctx context.Context, proposalAcct string) ([]*domain.Market, error)
}

// OrderStore provides access to orders storage.
type OrderStore interface {
	// Upsert inserts or replaces orders by order_tx_sig. Orders change when
	// they are filled or cancelled.
	Upsert(ctx context.Context, orders []*domain.Order) error

	// GetByTxSig retrieves an order. Returns ErrNotFound if not exists.
	GetByTxSig(ctx context.Context, orderTxSig string) (*domain.Order, error)

	// GetActiveByMarket retrieves active orders of a market ordered by order_time ASC.
	GetActiveByMarket(ctx context.Context, marketAcct string) ([]*domain.Order, error)
}

// TakeStore provides access to takes storage. Takes are immutable.
type TakeStore interface {
	// InsertBulk adds takes, skipping any whose order_tx_sig already exists.
	// Returns the number of rows inserted. Duplicates inside the batch are
	// rejected with ErrDuplicateKey.
	InsertBulk(ctx context.Context, takes []*domain.Take) (int, error)

	// GetByMarket retrieves takes of a market with order_time in [start, end]
	// (inclusive), ordered by order_time ASC then order_tx_sig ASC.
	GetByMarket(ctx context.Context, marketAcct string, start, end time.Time) ([]*domain.Take, error)
}

// CandleStore provides access to candles storage.
type CandleStore interface {
	// Upsert inserts or replaces candles by (market_acct, candle_duration, timestamp).
	Upsert(ctx context.Context, candles []*domain.Candle) error

	// GetRange retrieves candles of a market and bucket size with timestamp
	// in [start, end] (inclusive), ordered by timestamp ASC.
	GetRange(ctx context.Context, marketAcct string, duration int32, start, end time.Time) ([]*domain.Candle, error)
}

// TwapStore provides access to twaps storage.
type TwapStore interface {
	// Upsert inserts or replaces twaps by (market_acct, updated_slot).
	Upsert(ctx context.Context, twaps []*domain.Twap) error

	// GetByMarket retrieves observations of a market ordered by updated_slot ASC.
	GetByMarket(ctx context.Context, marketAcct string) ([]*domain.Twap, error)

	// Latest retrieves the observation with the highest updated_slot.
	// Returns ErrNotFound if the market has none.
	Latest(ctx context.Context, marketAcct string) (*domain.Twap, error)
}

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Upsert inserts or replaces tokens by mint_acct.
	Upsert(ctx context.Context, tokens []*domain.Token) error

	// GetByMint retrieves a token. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mintAcct string) (*domain.Token, error)
}

// CursorStore persists mirror stream positions.
type CursorStore interface {
	// Get retrieves the cursor of a stream. Returns ErrNotFound if the stream
	// has never written a batch.
	Get(ctx context.Context, stream string) (*Cursor, error)

	// Set stores the cursor of a stream, replacing the previous one.
	Set(ctx context.Context, c *Cursor) error

	// List retrieves all cursors ordered by stream.
	List(ctx context.Context) ([]*Cursor, error)
}
