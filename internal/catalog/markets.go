package catalog

import "futarchy-graph/internal/schema"

func marketTables() []schema.Table {
	return []schema.Table{
		{
			Name: "markets",
			Columns: []schema.Column{
				col("market_acct", "text"),
				col("market_type", "text"),
				col("create_tx_sig", "text"),
				opt("proposal_acct", "text"),
				col("base_mint_acct", "text"),
				col("quote_mint_acct", "text"),
				col("base_lot_size", "bigint"),
				col("quote_lot_size", "bigint"),
				col("quote_tick_size", "bigint"),
				opt("bids_acct", "text"),
				opt("asks_acct", "text"),
				opt("inactive_slot", "bigint"),
				col("created_at_slot", "bigint"),
				col("base_maker_fee", "smallint"),
				col("base_taker_fee", "smallint"),
				col("quote_maker_fee", "bigint"),
				col("quote_taker_fee", "bigint"),
				opt("active_slot", "bigint"),
			},
			PrimaryKey: []string{"market_acct"},
			Relationships: []schema.Relationship{
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
				obj("token", "tokens", "base_mint_acct", "mint_acct"),
				obj("tokenByQuoteMintAcct", "tokens", "quote_mint_acct", "mint_acct"),
				arr("orders", "orders", "market_acct", "market_acct"),
				arr("makes", "makes", "market_acct", "market_acct"),
				arr("takes", "takes", "market_acct", "market_acct"),
				arr("candles", "candles", "market_acct", "market_acct"),
				arr("twaps", "twaps", "market_acct", "market_acct"),
				arr("prices", "prices", "market_acct", "market_acct"),
			},
		},
		{
			Name: "orders",
			Columns: []schema.Column{
				col("order_tx_sig", "text"),
				col("market_acct", "text"),
				col("actor_acct", "text"),
				col("side", "text"),
				col("order_block", "bigint"),
				col("order_time", "timestamptz"),
				opt("cancel_tx_sig", "text"),
				opt("cancel_block", "bigint"),
				opt("cancel_time", "timestamptz"),
				col("filled_base_amount", "bigint"),
				col("unfilled_base_amount", "bigint"),
				col("quote_price", "numeric"),
				col("is_active", "boolean"),
				opt("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"order_tx_sig"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
				obj("make", "makes", "order_tx_sig", "order_tx_sig"),
				obj("take", "takes", "order_tx_sig", "order_tx_sig"),
				obj("user", "users", "actor_acct", "user_acct"),
				obj("transaction", "transactions", "order_tx_sig", "tx_sig"),
			},
		},
		{
			Name: "makes",
			Columns: []schema.Column{
				col("order_tx_sig", "text"),
				col("market_acct", "text"),
				col("is_active", "boolean"),
				col("unfilled_base_amount", "bigint"),
				col("filled_base_amount", "bigint"),
				col("quote_price", "numeric"),
				opt("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"order_tx_sig"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
				obj("order", "orders", "order_tx_sig", "order_tx_sig"),
				arr("takes", "takes", "order_tx_sig", "maker_order_tx_sig"),
			},
		},
		{
			Name: "takes",
			Columns: []schema.Column{
				col("order_tx_sig", "text"),
				col("base_amount", "bigint"),
				col("quote_price", "numeric"),
				col("taker_base_fee", "bigint"),
				col("taker_quote_fee", "bigint"),
				opt("maker_order_tx_sig", "text"),
				opt("maker_base_fee", "bigint"),
				opt("maker_quote_fee", "bigint"),
				col("market_acct", "text"),
				col("order_block", "bigint"),
				col("order_time", "timestamptz"),
			},
			PrimaryKey: []string{"order_tx_sig"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
				obj("order", "orders", "order_tx_sig", "order_tx_sig"),
				obj("make", "makes", "maker_order_tx_sig", "order_tx_sig"),
			},
		},
		{
			Name: "candles",
			Columns: []schema.Column{
				col("market_acct", "text"),
				col("candle_duration", "integer"),
				col("timestamp", "timestamptz"),
				col("organic_volume", "bigint"),
				opt("open", "numeric"),
				opt("high", "numeric"),
				opt("low", "numeric"),
				opt("close", "numeric"),
				opt("candle_average", "numeric"),
				opt("cond_market_twap", "numeric"),
			},
			PrimaryKey: []string{"market_acct", "candle_duration", "timestamp"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
			},
		},
		{
			Name: "twaps",
			Columns: []schema.Column{
				col("market_acct", "text"),
				col("proposal_acct", "text"),
				col("updated_slot", "bigint"),
				col("observation_agg", "numeric"),
				opt("last_observation", "numeric"),
				opt("last_price", "numeric"),
				opt("token_amount", "bigint"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"market_acct", "updated_slot"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
			},
		},
		{
			Name: "prices",
			Columns: []schema.Column{
				col("market_acct", "text"),
				col("updated_slot", "bigint"),
				opt("base_amount", "bigint"),
				opt("quote_amount", "bigint"),
				col("price", "numeric"),
				col("prices_type", "text"),
				col("created_by", "text"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"market_acct", "updated_slot"},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
			},
		},
	}
}
