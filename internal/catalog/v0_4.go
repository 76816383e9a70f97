package catalog

import "futarchy-graph/internal/schema"

// v04Tables are the conditional vault and AMM tables of the v0.4 programs.
func v04Tables() []schema.Table {
	vaultEvent := func(name string) schema.Table {
		return schema.Table{
			Name: name,
			Columns: []schema.Column{
				col("vault_addr", "text"),
				col("vault_seq_num", "bigint"),
				col("signature", "text"),
				col("slot", "bigint"),
				col("amount", "bigint"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"vault_addr", "vault_seq_num"},
			Relationships: []schema.Relationship{
				obj("v0_4_conditional_vault", "v0_4_conditional_vaults", "vault_addr", "conditional_vault_addr"),
			},
		}
	}

	return []schema.Table{
		{
			Name: "v0_4_amms",
			Columns: []schema.Column{
				col("amm_addr", "text"),
				col("created_at_slot", "bigint"),
				col("lp_mint_addr", "text"),
				col("base_mint_addr", "text"),
				col("quote_mint_addr", "text"),
				col("base_reserves", "bigint"),
				col("quote_reserves", "bigint"),
				col("latest_amm_seq_num_applied", "bigint"),
				col("inserted_at", "timestamptz"),
			},
			PrimaryKey: []string{"amm_addr"},
			Relationships: []schema.Relationship{
				arr("v0_4_swaps", "v0_4_swaps", "amm_addr", "amm_addr"),
			},
		},
		{
			Name: "v0_4_swaps",
			Columns: []schema.Column{
				col("signature", "text"),
				col("slot", "bigint"),
				col("block_time", "timestamptz"),
				col("swap_type", "text"),
				col("amm_addr", "text"),
				col("user_addr", "text"),
				col("amm_seq_num", "bigint"),
				col("input_amount", "bigint"),
				col("output_amount", "bigint"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"signature"},
			Relationships: []schema.Relationship{
				obj("v0_4_amm", "v0_4_amms", "amm_addr", "amm_addr"),
			},
		},
		{
			Name: "v0_4_questions",
			Columns: []schema.Column{
				col("question_addr", "text"),
				col("is_resolved", "boolean"),
				col("oracle_addr", "text"),
				col("num_outcomes", "smallint"),
				col("payout_numerators", "jsonb"),
				col("payout_denominator", "bigint"),
				col("question_id", "jsonb"),
				col("created_at", "timestamptz"),
				col("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"question_addr"},
			Relationships: []schema.Relationship{
				arr("v0_4_conditional_vaults", "v0_4_conditional_vaults", "question_addr", "question_addr"),
			},
		},
		{
			Name: "v0_4_conditional_vaults",
			Columns: []schema.Column{
				col("conditional_vault_addr", "text"),
				col("question_addr", "text"),
				col("underlying_mint_acct", "text"),
				col("underlying_token_acct", "text"),
				col("pda_bump", "smallint"),
				col("latest_vault_seq_num_applied", "bigint"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"conditional_vault_addr"},
			Relationships: []schema.Relationship{
				obj("v0_4_question", "v0_4_questions", "question_addr", "question_addr"),
				arr("v0_4_splits", "v0_4_splits", "conditional_vault_addr", "vault_addr"),
				arr("v0_4_merges", "v0_4_merges", "conditional_vault_addr", "vault_addr"),
			},
		},
		vaultEvent("v0_4_splits"),
		vaultEvent("v0_4_merges"),
	}
}

// views are read-only; Hasura exposes no mutations or by_pk lookups for them.
func views() []schema.Table {
	return []schema.Table{
		{
			Name: "prices_chart_data",
			View: true,
			Columns: []schema.Column{
				opt("interv", "timestamptz"),
				opt("price", "numeric"),
				opt("base_amount", "bigint"),
				opt("quote_amount", "bigint"),
				opt("market_acct", "text"),
				opt("prices_type", "text"),
			},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
			},
		},
		{
			Name: "twap_chart_data",
			View: true,
			Columns: []schema.Column{
				opt("interv", "timestamptz"),
				opt("token_amount", "bigint"),
				opt("market_acct", "text"),
			},
			Relationships: []schema.Relationship{
				obj("market", "markets", "market_acct", "market_acct"),
			},
		},
		{
			Name: "proposal_total_trade_volume",
			View: true,
			Columns: []schema.Column{
				opt("proposal_acct", "text"),
				opt("pass_market_acct", "text"),
				opt("fail_market_acct", "text"),
				opt("pass_volume", "numeric"),
				opt("fail_volume", "numeric"),
			},
			Relationships: []schema.Relationship{
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
			},
		},
	}
}
