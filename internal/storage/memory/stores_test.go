package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestDaoStore_UpsertAndGet(t *testing.T) {
	store := NewDaoStore()
	ctx := context.Background()

	dao := &domain.Dao{DaoAcct: "dao2", BaseAcct: "META"}
	if err := store.Upsert(ctx, []*domain.Dao{dao, {DaoAcct: "dao1"}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Mutating the caller's row must not reach the store
	dao.BaseAcct = "changed"

	got, err := store.GetByAcct(ctx, "dao2")
	if err != nil {
		t.Fatalf("GetByAcct failed: %v", err)
	}
	if got.BaseAcct != "META" {
		t.Errorf("BaseAcct = %q, want META", got.BaseAcct)
	}

	// Upsert replaces
	if err := store.Upsert(ctx, []*domain.Dao{{DaoAcct: "dao2", BaseAcct: "USDC"}}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	got, _ = store.GetByAcct(ctx, "dao2")
	if got.BaseAcct != "USDC" {
		t.Errorf("BaseAcct after upsert = %q, want USDC", got.BaseAcct)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].DaoAcct != "dao1" || list[1].DaoAcct != "dao2" {
		t.Errorf("List returned %+v", list)
	}

	if _, err := store.GetByAcct(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDaoStore_InvalidInput(t *testing.T) {
	store := NewDaoStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, []*domain.Dao{{DaoAcct: "ok"}, nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil row, got %v", err)
	}
	if err := store.Upsert(ctx, []*domain.Dao{{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty key, got %v", err)
	}

	// A rejected batch writes nothing
	if list, _ := store.List(ctx); len(list) != 0 {
		t.Errorf("Expected empty store, got %d rows", len(list))
	}
}

func TestProposalStore_Queries(t *testing.T) {
	store := NewProposalStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := store.Upsert(ctx, []*domain.Proposal{
		{ProposalAcct: "p3", DaoAcct: "dao1", ProposalNum: 3, Status: domain.ProposalStatusPending, CreatedAt: base.Add(2 * time.Hour)},
		{ProposalAcct: "p1", DaoAcct: "dao1", ProposalNum: 1, Status: domain.ProposalStatusPassed, CreatedAt: base},
		{ProposalAcct: "p2", DaoAcct: "dao1", ProposalNum: 2, Status: domain.ProposalStatusPending, CreatedAt: base.Add(time.Hour)},
		{ProposalAcct: "x1", DaoAcct: "dao2", ProposalNum: 1, Status: domain.ProposalStatusPending, CreatedAt: base.Add(3 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byDao, err := store.GetByDao(ctx, "dao1")
	if err != nil {
		t.Fatalf("GetByDao failed: %v", err)
	}
	if len(byDao) != 3 {
		t.Fatalf("Expected 3 proposals, got %d", len(byDao))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if byDao[i].ProposalAcct != want {
			t.Errorf("byDao[%d] = %s, want %s", i, byDao[i].ProposalAcct, want)
		}
	}

	pending, err := store.GetByStatus(ctx, domain.ProposalStatusPending)
	if err != nil {
		t.Fatalf("GetByStatus failed: %v", err)
	}
	if len(pending) != 3 || pending[0].ProposalAcct != "p2" || pending[2].ProposalAcct != "x1" {
		t.Errorf("GetByStatus returned %+v", pending)
	}
}

func TestMarketStore_GetByProposal(t *testing.T) {
	store := NewMarketStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []*domain.Market{
		{MarketAcct: "pass", ProposalAcct: strPtr("p1"), MarketType: domain.MarketTypeAmm},
		{MarketAcct: "fail", ProposalAcct: strPtr("p1"), MarketType: domain.MarketTypeAmm},
		{MarketAcct: "spot", MarketType: domain.MarketTypeOpenbookV2},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	markets, err := store.GetByProposal(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProposal failed: %v", err)
	}
	if len(markets) != 2 || markets[0].MarketAcct != "fail" || markets[1].MarketAcct != "pass" {
		t.Errorf("GetByProposal returned %+v", markets)
	}

	spot, err := store.GetByAcct(ctx, "spot")
	if err != nil {
		t.Fatalf("GetByAcct failed: %v", err)
	}
	if spot.ProposalAcct != nil {
		t.Errorf("Expected nil proposal, got %v", *spot.ProposalAcct)
	}
}

func TestOrderStore_GetActiveByMarket(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := store.Upsert(ctx, []*domain.Order{
		{OrderTxSig: "o2", MarketAcct: "m1", IsActive: true, OrderTime: base.Add(time.Minute)},
		{OrderTxSig: "o1", MarketAcct: "m1", IsActive: true, OrderTime: base},
		{OrderTxSig: "o3", MarketAcct: "m1", IsActive: false, OrderTime: base},
		{OrderTxSig: "o4", MarketAcct: "m2", IsActive: true, OrderTime: base},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Cancelling o1 replaces it
	if err := store.Upsert(ctx, []*domain.Order{{OrderTxSig: "o1", MarketAcct: "m1", IsActive: false, OrderTime: base}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	active, err := store.GetActiveByMarket(ctx, "m1")
	if err != nil {
		t.Fatalf("GetActiveByMarket failed: %v", err)
	}
	if len(active) != 1 || active[0].OrderTxSig != "o2" {
		t.Errorf("GetActiveByMarket returned %+v", active)
	}
}

func TestTakeStore_InsertBulkSkipsExisting(t *testing.T) {
	store := NewTakeStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := []*domain.Take{
		{OrderTxSig: "t1", MarketAcct: "m1", BaseAmount: 10, QuotePrice: decimal.RequireFromString("1.5"), OrderTime: base},
		{OrderTxSig: "t2", MarketAcct: "m1", BaseAmount: 20, OrderTime: base.Add(time.Second)},
	}
	n, err := store.InsertBulk(ctx, first)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	// Replaying an overlapping batch only inserts the new take
	n, err = store.InsertBulk(ctx, []*domain.Take{
		{OrderTxSig: "t2", MarketAcct: "m1", BaseAmount: 999, OrderTime: base.Add(time.Second)},
		{OrderTxSig: "t3", MarketAcct: "m1", BaseAmount: 30, OrderTime: base.Add(time.Second)},
	})
	if err != nil {
		t.Fatalf("InsertBulk replay failed: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted on replay = %d, want 1", n)
	}

	takes, err := store.GetByMarket(ctx, "m1", base, base.Add(time.Second))
	if err != nil {
		t.Fatalf("GetByMarket failed: %v", err)
	}
	if len(takes) != 3 {
		t.Fatalf("Expected 3 takes, got %d", len(takes))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if takes[i].OrderTxSig != want {
			t.Errorf("takes[%d] = %s, want %s", i, takes[i].OrderTxSig, want)
		}
	}
	if takes[1].BaseAmount != 20 {
		t.Errorf("takes are immutable: base amount = %d, want 20", takes[1].BaseAmount)
	}
	if !takes[0].QuotePrice.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("QuotePrice = %s", takes[0].QuotePrice)
	}

	// Range bounds are inclusive
	takes, _ = store.GetByMarket(ctx, "m1", base.Add(time.Second), base.Add(time.Hour))
	if len(takes) != 2 {
		t.Errorf("Expected 2 takes at or after the second, got %d", len(takes))
	}
}

func TestTakeStore_IntraBatchDuplicate(t *testing.T) {
	store := NewTakeStore()
	ctx := context.Background()

	_, err := store.InsertBulk(ctx, []*domain.Take{
		{OrderTxSig: "t1", MarketAcct: "m1"},
		{OrderTxSig: "t1", MarketAcct: "m1"},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if _, err := store.InsertBulk(ctx, []*domain.Take{{MarketAcct: "m1"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	n, err := store.InsertBulk(ctx, nil)
	if err != nil || n != 0 {
		t.Errorf("empty InsertBulk = (%d, %v)", n, err)
	}
}

func TestCandleStore_GetRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var candles []*domain.Candle
	for i := 0; i < 5; i++ {
		candles = append(candles, &domain.Candle{
			MarketAcct:     "m1",
			CandleDuration: 3600,
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			OrganicVolume:  int64(i),
		})
	}
	candles = append(candles, &domain.Candle{MarketAcct: "m1", CandleDuration: 60, Timestamp: base})
	if err := store.Upsert(ctx, candles); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Re-upserting a bucket replaces it
	if err := store.Upsert(ctx, []*domain.Candle{{MarketAcct: "m1", CandleDuration: 3600, Timestamp: base.Add(time.Hour), OrganicVolume: 100}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetRange(ctx, "m1", 3600, base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(got))
	}
	if got[0].OrganicVolume != 100 || got[2].OrganicVolume != 3 {
		t.Errorf("unexpected volumes %d, %d", got[0].OrganicVolume, got[2].OrganicVolume)
	}

	if err := store.Upsert(ctx, []*domain.Candle{{MarketAcct: "m1", CandleDuration: 60}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero timestamp, got %v", err)
	}
}

func TestTwapStore_Latest(t *testing.T) {
	store := NewTwapStore()
	ctx := context.Background()

	if _, err := store.Latest(ctx, "m1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err := store.Upsert(ctx, []*domain.Twap{
		{MarketAcct: "m1", UpdatedSlot: 300, ObservationAgg: decimal.NewFromInt(3)},
		{MarketAcct: "m1", UpdatedSlot: 100, ObservationAgg: decimal.NewFromInt(1)},
		{MarketAcct: "m2", UpdatedSlot: 900},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	latest, err := store.Latest(ctx, "m1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.UpdatedSlot != 300 {
		t.Errorf("Latest slot = %d, want 300", latest.UpdatedSlot)
	}

	obs, _ := store.GetByMarket(ctx, "m1")
	if len(obs) != 2 || obs[0].UpdatedSlot != 100 {
		t.Errorf("GetByMarket returned %+v", obs)
	}
}

func TestTokenStore(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, []*domain.Token{{MintAcct: "mint1", Symbol: "META", Decimals: 9}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	tok, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if tok.Symbol != "META" || tok.Decimals != 9 {
		t.Errorf("GetByMint returned %+v", tok)
	}
}

func TestCursorStore(t *testing.T) {
	store := NewCursorStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "takes"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	c := &storage.Cursor{Stream: "takes", Column: "order_time", Value: []byte(`"2024-05-01T12:00:00Z"`), Ties: 2}
	if err := store.Set(ctx, c); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c.Value[1] = 'X'

	got, err := store.Get(ctx, "takes")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Value) != `"2024-05-01T12:00:00Z"` || got.Ties != 2 || got.UpdatedAt.IsZero() {
		t.Errorf("Get returned %+v", got)
	}
	ts, ok := got.Time()
	if !ok || !ts.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v, %v", ts, ok)
	}

	if err := store.Set(ctx, &storage.Cursor{Stream: "twaps", Column: "updated_slot", Value: []byte(`250000000`)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	list, _ := store.List(ctx)
	if len(list) != 2 || list[0].Stream != "takes" || list[1].Stream != "twaps" {
		t.Errorf("List returned %+v", list)
	}
	if _, ok := list[1].Time(); ok {
		t.Errorf("slot cursor should not decode as time")
	}

	for _, bad := range []*storage.Cursor{
		nil,
		{Stream: "takes", Value: []byte(`1`)},
		{Stream: "takes", Column: "order_time", Value: []byte(`{`)},
		{Stream: "takes", Column: "order_time", Value: []byte(`1`), Ties: -1},
	} {
		if err := store.Set(ctx, bad); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Set(%+v): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}
