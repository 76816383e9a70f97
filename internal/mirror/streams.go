package mirror

import (
	"fmt"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// Stores are the destinations of the futarchy streams. All primary stores are
// required. The analytics stores are optional second copies of fills and
// candles.
type Stores struct {
	Daos      storage.DaoStore
	Proposals storage.ProposalStore
	Markets   storage.MarketStore
	Orders    storage.OrderStore
	Takes     storage.TakeStore
	Candles   storage.CandleStore
	Twaps     storage.TwapStore
	Tokens    storage.TokenStore

	AnalyticsTakes   storage.TakeStore
	AnalyticsCandles storage.CandleStore
}

// FutarchyStreams returns the streams for the named tables, or for every
// mirrored table when tables is empty.
//
// Orders are cursored on order_time, so fills and cancels of an order after
// it was first mirrored are only picked up by a fresh backfill.
func FutarchyStreams(s Stores, tables ...string) ([]*Stream, error) {
	takes := Sink[domain.Take](s.Takes.InsertBulk)
	if s.AnalyticsTakes != nil {
		takes = Tee(takes, s.AnalyticsTakes.InsertBulk)
	}
	candles := Upsert(s.Candles.Upsert)
	if s.AnalyticsCandles != nil {
		candles = Tee(candles, Upsert(s.AnalyticsCandles.Upsert))
	}

	all := map[string]*Stream{
		"daos":      NewStream("daos", "updated_at", StartTime, Upsert(s.Daos.Upsert)),
		"proposals": NewStream("proposals", "updated_at", StartTime, Upsert(s.Proposals.Upsert)),
		"markets":   NewStream("markets", "created_at_slot", StartSlot, Upsert(s.Markets.Upsert)),
		"orders":    NewStream("orders", "order_time", StartTime, Upsert(s.Orders.Upsert)),
		"takes":     NewStream("takes", "order_time", StartTime, takes),
		"candles":   NewStream("candles", "timestamp", StartTime, candles),
		"twaps":     NewStream("twaps", "updated_slot", StartSlot, Upsert(s.Twaps.Upsert)),
		"tokens":    NewStream("tokens", "updated_at", StartTime, Upsert(s.Tokens.Upsert)),
	}

	if len(tables) == 0 {
		tables = TableNames()
	}
	streams := make([]*Stream, 0, len(tables))
	for _, t := range tables {
		st, ok := all[t]
		if !ok {
			return nil, fmt.Errorf("no stream for table %q", t)
		}
		streams = append(streams, st)
	}
	return streams, nil
}

// TableNames lists the tables FutarchyStreams can mirror, sorted.
func TableNames() []string {
	return []string{"candles", "daos", "markets", "orders", "proposals", "takes", "tokens", "twaps"}
}
