package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestDaoStore_Upsert(t *testing.T) {
	pool := setupTestDB(t)

	store := NewDaoStore(pool)
	ctx := context.Background()

	dao := &domain.Dao{
		DaoAcct:          "dao1",
		ProgramAcct:      "autocrat",
		BaseAcct:         "META",
		QuoteAcct:        "USDC",
		SlotsPerProposal: ptr(int64(432000)),
		CreatedAt:        t0,
		UpdatedAt:        t0,
	}
	require.NoError(t, store.Upsert(ctx, []*domain.Dao{dao}))

	dao.TreasuryAcct = ptr("treasury")
	dao.UpdatedAt = t0.Add(time.Hour)
	require.NoError(t, store.Upsert(ctx, []*domain.Dao{dao, {DaoAcct: "dao0", CreatedAt: t0, UpdatedAt: t0}}))

	got, err := store.GetByAcct(ctx, "dao1")
	require.NoError(t, err)
	assert.Equal(t, "treasury", *got.TreasuryAcct)
	assert.Equal(t, int64(432000), *got.SlotsPerProposal)
	assert.Nil(t, got.DaoID)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dao0", list[0].DaoAcct)

	_, err = store.GetByAcct(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Upsert(ctx, []*domain.Dao{{}}), storage.ErrInvalidInput)
}

func TestProposalStore_Queries(t *testing.T) {
	pool := setupTestDB(t)

	store := NewProposalStore(pool)
	ctx := context.Background()

	proposals := []*domain.Proposal{
		{ProposalAcct: "p2", ProposalNum: 2, DaoAcct: "dao1", Status: domain.ProposalStatusPending, AutocratVersion: 0.3, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0},
		{ProposalAcct: "p1", ProposalNum: 1, DaoAcct: "dao1", Status: domain.ProposalStatusPassed, AutocratVersion: 0.3, CreatedAt: t0, UpdatedAt: t0, EndedAt: ptr(t0)},
		{ProposalAcct: "q1", ProposalNum: 1, DaoAcct: "dao2", Status: domain.ProposalStatusPending, CreatedAt: t0, UpdatedAt: t0},
	}
	require.NoError(t, store.Upsert(ctx, proposals))

	byDao, err := store.GetByDao(ctx, "dao1")
	require.NoError(t, err)
	require.Len(t, byDao, 2)
	assert.Equal(t, "p1", byDao[0].ProposalAcct)
	assert.Equal(t, domain.ProposalStatusPassed, byDao[0].Status)
	assert.Equal(t, 0.3, byDao[0].AutocratVersion)
	require.NotNil(t, byDao[0].EndedAt)

	pending, err := store.GetByStatus(ctx, domain.ProposalStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "q1", pending[0].ProposalAcct)
}

func TestMarketStore_GetByProposal(t *testing.T) {
	pool := setupTestDB(t)

	store := NewMarketStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*domain.Market{
		{MarketAcct: "pass", MarketType: domain.MarketTypeAmm, ProposalAcct: ptr("p1"), BaseMakerFee: 5},
		{MarketAcct: "fail", MarketType: domain.MarketTypeAmm, ProposalAcct: ptr("p1")},
		{MarketAcct: "book", MarketType: domain.MarketTypeOpenbookV2, BidsAcct: ptr("bids")},
	}))

	markets, err := store.GetByProposal(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "fail", markets[0].MarketAcct)
	assert.Equal(t, int16(5), markets[1].BaseMakerFee)

	book, err := store.GetByAcct(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, domain.MarketTypeOpenbookV2, book.MarketType)
	assert.Nil(t, book.ProposalAcct)
}

func TestOrderStore_Upsert(t *testing.T) {
	pool := setupTestDB(t)

	store := NewOrderStore(pool)
	ctx := context.Background()

	order := &domain.Order{
		OrderTxSig:         "o1",
		MarketAcct:         "m1",
		ActorAcct:          "actor",
		Side:               domain.OrderSideBid,
		OrderTime:          t0,
		UnfilledBaseAmount: 100,
		QuotePrice:         decimal.RequireFromString("0.25"),
		IsActive:           true,
	}
	require.NoError(t, store.Upsert(ctx, []*domain.Order{order}))

	active, err := store.GetActiveByMarket(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].QuotePrice.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, domain.OrderSideBid, active[0].Side)

	// Cancel
	order.IsActive = false
	order.CancelTxSig = ptr("cancel")
	order.CancelTime = ptr(t0.Add(time.Minute))
	require.NoError(t, store.Upsert(ctx, []*domain.Order{order}))

	active, err = store.GetActiveByMarket(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err := store.GetByTxSig(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "cancel", *got.CancelTxSig)
}

func TestTakeStore_InsertBulk(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTakeStore(pool)
	ctx := context.Background()

	takes := []*domain.Take{
		{OrderTxSig: "t1", MarketAcct: "m1", BaseAmount: 10, QuotePrice: decimal.RequireFromString("1.000123"), OrderTime: t0},
		{OrderTxSig: "t2", MarketAcct: "m1", BaseAmount: 20, QuotePrice: decimal.NewFromInt(2), OrderTime: t0.Add(time.Second), MakerOrderTxSig: ptr("o1")},
	}
	n, err := store.InsertBulk(ctx, takes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Replay with one new row
	n, err = store.InsertBulk(ctx, []*domain.Take{
		takes[1],
		{OrderTxSig: "t3", MarketAcct: "m1", BaseAmount: 30, QuotePrice: decimal.NewFromInt(3), OrderTime: t0.Add(2 * time.Second)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetByMarket(ctx, "m1", t0, t0.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].QuotePrice.Equal(decimal.RequireFromString("1.000123")))
	assert.Equal(t, "o1", *got[1].MakerOrderTxSig)

	_, err = store.InsertBulk(ctx, []*domain.Take{takes[0], takes[0]})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err = store.InsertBulk(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCandleStore_Upsert(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCandleStore(pool)
	ctx := context.Background()

	open := decimal.NewNullDecimal(decimal.RequireFromString("1.5"))
	require.NoError(t, store.Upsert(ctx, []*domain.Candle{
		{MarketAcct: "m1", CandleDuration: 60, Timestamp: t0, Open: open},
		{MarketAcct: "m1", CandleDuration: 60, Timestamp: t0.Add(time.Minute)},
		{MarketAcct: "m1", CandleDuration: 3600, Timestamp: t0},
	}))
	require.NoError(t, store.Upsert(ctx, []*domain.Candle{
		{MarketAcct: "m1", CandleDuration: 60, Timestamp: t0.Add(time.Minute), OrganicVolume: 7},
	}))

	got, err := store.GetRange(ctx, "m1", 60, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Open.Valid)
	assert.True(t, got[0].Open.Decimal.Equal(decimal.RequireFromString("1.5")))
	assert.False(t, got[0].Close.Valid)
	assert.Equal(t, int64(7), got[1].OrganicVolume)
}

func TestTwapStore_Latest(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTwapStore(pool)
	ctx := context.Background()

	_, err := store.Latest(ctx, "m1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Upsert(ctx, []*domain.Twap{
		{MarketAcct: "m1", ProposalAcct: "p1", UpdatedSlot: 100, ObservationAgg: decimal.NewFromInt(10), CreatedAt: t0},
		{MarketAcct: "m1", ProposalAcct: "p1", UpdatedSlot: 200, ObservationAgg: decimal.NewFromInt(25), TokenAmount: ptr(int64(5)), CreatedAt: t0},
	}))

	latest, err := store.Latest(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), latest.UpdatedSlot)
	assert.True(t, latest.ObservationAgg.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, int64(5), *latest.TokenAmount)

	all, err := store.GetByMarket(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTokenStore_Upsert(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*domain.Token{{MintAcct: "mint", Name: "Meta", Symbol: "META", Decimals: 9, UpdatedAt: t0}}))
	require.NoError(t, store.Upsert(ctx, []*domain.Token{{MintAcct: "mint", Name: "Meta", Symbol: "META", Decimals: 9, Supply: 1000, UpdatedAt: t0}}))

	tok, err := store.GetByMint(ctx, "mint")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), tok.Supply)
	assert.Equal(t, int16(9), tok.Decimals)
}

func TestCursorStore_SetGet(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCursorStore(pool)
	ctx := context.Background()

	_, err := store.Get(ctx, "takes")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, &storage.Cursor{Stream: "takes", Column: "order_time", Value: []byte(`"2024-05-01T12:00:00Z"`)}))
	require.NoError(t, store.Set(ctx, &storage.Cursor{Stream: "takes", Column: "order_time", Value: []byte(`"2024-05-01T13:00:00Z"`), Ties: 3}))

	c, err := store.Get(ctx, "takes")
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-05-01T13:00:00Z"`, string(c.Value))
	assert.Equal(t, 3, c.Ties)
	assert.False(t, c.UpdatedAt.IsZero())

	require.NoError(t, store.Set(ctx, &storage.Cursor{Stream: "twaps", Column: "updated_slot", Value: []byte(`42`)}))
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "twaps", list[1].Stream)

	assert.ErrorIs(t, store.Set(ctx, &storage.Cursor{Stream: "x"}), storage.ErrInvalidInput)
}
