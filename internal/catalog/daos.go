package catalog

import "futarchy-graph/internal/schema"

func daoTables() []schema.Table {
	return []schema.Table{
		{
			Name: "daos",
			Columns: []schema.Column{
				col("dao_acct", "text"),
				col("program_acct", "text"),
				col("base_acct", "text"),
				col("quote_acct", "text"),
				opt("treasury_acct", "text"),
				opt("slots_per_proposal", "bigint"),
				opt("pass_threshold_bps", "bigint"),
				opt("dao_id", "bigint"),
				opt("min_base_futarchic_liquidity", "bigint"),
				opt("min_quote_futarchic_liquidity", "bigint"),
				opt("twap_initial_observation", "bigint"),
				opt("twap_max_observation_change_per_update", "bigint"),
				opt("colors", "jsonb"),
				col("created_at", "timestamptz"),
				col("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"dao_acct"},
			UniqueKeys: map[string][]string{"daos_treasury_acct_unique": {"treasury_acct"}},
			Relationships: []schema.Relationship{
				arr("proposals", "proposals", "dao_acct", "dao_acct"),
				obj("dao_detail", "dao_details", "dao_id", "dao_id"),
				obj("tokenByBaseAcct", "tokens", "base_acct", "mint_acct"),
				obj("tokenByQuoteAcct", "tokens", "quote_acct", "mint_acct"),
				obj("program", "programs", "program_acct", "program_acct"),
			},
		},
		{
			Name: "dao_details",
			Columns: []schema.Column{
				col("dao_id", "bigint"),
				opt("name", "text"),
				opt("slug", "text"),
				opt("url", "text"),
				opt("x_account", "text"),
				opt("github", "text"),
				opt("description", "text"),
				opt("image_url", "text"),
				opt("creator_acct", "text"),
				opt("admin_accts", "jsonb"),
				opt("token_image_url", "text"),
				opt("pass_token_image_url", "text"),
				opt("fail_token_image_url", "text"),
				opt("lp_token_image_url", "text"),
				opt("is_hide", "boolean"),
			},
			PrimaryKey: []string{"dao_id"},
			UniqueKeys: map[string][]string{"dao_details_slug_key": {"slug"}},
			Relationships: []schema.Relationship{
				arr("daos", "daos", "dao_id", "dao_id"),
			},
		},
		{
			Name: "proposals",
			Columns: []schema.Column{
				col("proposal_acct", "text"),
				col("proposal_num", "bigint"),
				col("autocrat_version", "double precision"),
				col("proposer_acct", "text"),
				col("initial_slot", "bigint"),
				opt("end_slot", "bigint"),
				col("status", "text"),
				opt("description_url", "text"),
				opt("pricing_model_pass_acct", "text"),
				opt("pricing_model_fail_acct", "text"),
				opt("pass_market_acct", "text"),
				opt("fail_market_acct", "text"),
				opt("base_vault", "text"),
				opt("quote_vault", "text"),
				col("dao_acct", "text"),
				opt("duration_in_slots", "bigint"),
				opt("pass_threshold_bps", "bigint"),
				opt("twap_initial_observation", "bigint"),
				opt("twap_max_observation_change_per_update", "bigint"),
				opt("min_base_futarchic_liquidity", "bigint"),
				opt("min_quote_futarchic_liquidity", "bigint"),
				col("created_at", "timestamptz"),
				col("updated_at", "timestamptz"),
				opt("ended_at", "timestamptz"),
				opt("completed_at", "timestamptz"),
			},
			PrimaryKey: []string{"proposal_acct"},
			Relationships: []schema.Relationship{
				obj("dao", "daos", "dao_acct", "dao_acct"),
				arr("markets", "markets", "proposal_acct", "proposal_acct"),
				arr("twaps", "twaps", "proposal_acct", "proposal_acct"),
				arr("proposal_details", "proposal_details", "proposal_acct", "proposal_acct"),
				arr("comments", "comments", "proposal_acct", "proposal_acct"),
				arr("reactions", "reactions", "proposal_acct", "proposal_acct"),
				obj("conditionalVaultByBaseVault", "conditional_vaults", "base_vault", "cond_vault_acct"),
				obj("conditionalVaultByQuoteVault", "conditional_vaults", "quote_vault", "cond_vault_acct"),
			},
		},
		{
			Name: "proposal_details",
			Columns: []schema.Column{
				col("proposal_id", "bigint"),
				opt("proposal_acct", "text"),
				opt("title", "text"),
				opt("description", "text"),
				opt("categories", "jsonb"),
				opt("content", "text"),
				opt("proposer_acct", "text"),
				opt("base_cond_vault_acct", "text"),
				opt("quote_cond_vault_acct", "text"),
				opt("pass_market_acct", "text"),
				opt("fail_market_acct", "text"),
				opt("slug", "text"),
			},
			PrimaryKey: []string{"proposal_id"},
			Relationships: []schema.Relationship{
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
			},
		},
		{
			Name: "conditional_vaults",
			Columns: []schema.Column{
				col("cond_vault_acct", "text"),
				opt("status", "text"),
				col("settlement_authority", "text"),
				col("underlying_mint_acct", "text"),
				col("underlying_token_acct", "text"),
				col("pda_bump", "smallint"),
				col("cond_finalize_token_mint_acct", "text"),
				col("cond_revert_token_mint_acct", "text"),
				col("latest_vault_seq_num_applied", "bigint"),
			},
			PrimaryKey: []string{"cond_vault_acct"},
			Relationships: []schema.Relationship{
				obj("token", "tokens", "underlying_mint_acct", "mint_acct"),
				arr("proposalsByBaseVault", "proposals", "cond_vault_acct", "base_vault"),
				arr("proposalsByQuoteVault", "proposals", "cond_vault_acct", "quote_vault"),
			},
		},
	}
}
