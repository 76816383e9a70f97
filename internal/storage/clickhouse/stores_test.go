package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

func TestParseDSN(t *testing.T) {
	opts, err := parseDSN("clickhouse://user:pw@ch.local/analytics")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, "user", opts.Auth.Username)
	assert.Equal(t, "pw", opts.Auth.Password)
	assert.Equal(t, "analytics", opts.Auth.Database)
	assert.Equal(t, dialTimeout, opts.DialTimeout)
	require.NotNil(t, opts.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)

	opts, err = parseDSN("clickhouse://localhost:19000")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:19000"}, opts.Addr)
	assert.Empty(t, opts.Auth.Database)

	opts, err = parseDSN("clickhouse://localhost:19000/db?dial_timeout=3s")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	_, err = parseDSN("not a dsn")
	assert.Error(t, err)
}

func TestNullableDecimal(t *testing.T) {
	assert.Nil(t, nullable(decimal.NullDecimal{}))
	d := nullable(decimal.NewNullDecimal(decimal.RequireFromString("2.5")))
	require.NotNil(t, d)
	assert.True(t, fromNullable(d).Decimal.Equal(decimal.RequireFromString("2.5")))
	assert.False(t, fromNullable(nil).Valid)
}

func TestTakeStore_InsertBulk(t *testing.T) {
	conn := setupTestDB(t)

	store := NewTakeStore(conn)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	n, err := store.InsertBulk(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	takes := []*domain.Take{
		{OrderTxSig: "t1", MarketAcct: "m1", BaseAmount: 10, QuotePrice: decimal.RequireFromString("0.000123"), OrderTime: t0, OrderBlock: 250000000},
		{OrderTxSig: "t2", MarketAcct: "m1", BaseAmount: 20, QuotePrice: decimal.NewFromInt(1), OrderTime: t0.Add(time.Second), MakerOrderTxSig: ptr("o1"), MakerBaseFee: ptr(int64(2))},
	}
	n, err = store.InsertBulk(ctx, takes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Replayed rows are skipped
	n, err = store.InsertBulk(ctx, takes)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := store.GetByMarket(ctx, "m1", t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].OrderTxSig)
	assert.True(t, got[0].QuotePrice.Equal(decimal.RequireFromString("0.000123")))
	assert.Equal(t, int64(250000000), got[0].OrderBlock)
	assert.Nil(t, got[0].MakerOrderTxSig)
	assert.Equal(t, "o1", *got[1].MakerOrderTxSig)
	assert.True(t, got[1].OrderTime.Equal(t0.Add(time.Second)))

	_, err = store.InsertBulk(ctx, []*domain.Take{takes[0], takes[0]})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCandleStore_Upsert(t *testing.T) {
	conn := setupTestDB(t)

	store := NewCandleStore(conn)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, []*domain.Candle{
		{MarketAcct: "m1", CandleDuration: 3600, Timestamp: t0, OrganicVolume: 1, Close: decimal.NewNullDecimal(decimal.NewFromInt(1))},
		{MarketAcct: "m1", CandleDuration: 3600, Timestamp: t0.Add(time.Hour), OrganicVolume: 2},
	}))
	// Same bucket written again replaces the first version
	require.NoError(t, store.Upsert(ctx, []*domain.Candle{
		{MarketAcct: "m1", CandleDuration: 3600, Timestamp: t0, OrganicVolume: 5, Close: decimal.NewNullDecimal(decimal.NewFromInt(2))},
	}))

	got, err := store.GetRange(ctx, "m1", 3600, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].OrganicVolume)
	assert.True(t, got[0].Close.Decimal.Equal(decimal.NewFromInt(2)))
	assert.False(t, got[1].Close.Valid)
	assert.Equal(t, int32(3600), got[1].CandleDuration)

	assert.ErrorIs(t, store.Upsert(ctx, []*domain.Candle{{MarketAcct: "m1"}}), storage.ErrInvalidInput)
}
