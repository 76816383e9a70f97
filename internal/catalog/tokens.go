package catalog

import "futarchy-graph/internal/schema"

func tokenTables() []schema.Table {
	return []schema.Table{
		{
			Name: "tokens",
			Columns: []schema.Column{
				col("mint_acct", "text"),
				col("name", "text"),
				col("symbol", "text"),
				col("supply", "bigint"),
				col("decimals", "smallint"),
				col("updated_at", "timestamptz"),
				opt("image_url", "text"),
			},
			PrimaryKey: []string{"mint_acct"},
			Relationships: []schema.Relationship{
				arr("token_accts", "token_accts", "mint_acct", "mint_acct"),
				arr("markets", "markets", "mint_acct", "base_mint_acct"),
				arr("marketsByQuoteMintAcct", "markets", "mint_acct", "quote_mint_acct"),
				arr("daos", "daos", "mint_acct", "base_acct"),
				arr("daosByQuoteAcct", "daos", "mint_acct", "quote_acct"),
			},
		},
		{
			Name: "token_accts",
			Columns: []schema.Column{
				col("token_acct", "text"),
				col("mint_acct", "text"),
				col("owner_acct", "text"),
				col("amount", "bigint"),
				col("status", "text"),
				opt("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"token_acct"},
			Relationships: []schema.Relationship{
				obj("token", "tokens", "mint_acct", "mint_acct"),
				arr("token_acct_balances", "token_acct_balances", "token_acct", "token_acct"),
			},
		},
		{
			Name: "token_acct_balances",
			Columns: []schema.Column{
				col("token_acct", "text"),
				col("mint_acct", "text"),
				col("owner_acct", "text"),
				col("amount", "bigint"),
				col("delta", "bigint"),
				opt("slot", "bigint"),
				opt("tx_sig", "text"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"token_acct", "mint_acct", "amount", "created_at"},
			Relationships: []schema.Relationship{
				obj("tokenAcctByTokenAcct", "token_accts", "token_acct", "token_acct"),
				obj("token", "tokens", "mint_acct", "mint_acct"),
				obj("transaction", "transactions", "tx_sig", "tx_sig"),
			},
		},
	}
}
