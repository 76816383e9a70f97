package catalog

import "futarchy-graph/internal/schema"

func indexerTables() []schema.Table {
	return []schema.Table{
		{
			Name: "transactions",
			Columns: []schema.Column{
				col("tx_sig", "text"),
				col("slot", "bigint"),
				col("block_time", "timestamptz"),
				col("failed", "boolean"),
				col("payload", "text"),
				col("serializer_logic_version", "smallint"),
				opt("main_ix_type", "text"),
			},
			PrimaryKey: []string{"tx_sig"},
			Relationships: []schema.Relationship{
				arr("orders", "orders", "tx_sig", "order_tx_sig"),
			},
		},
		{
			Name: "programs",
			Columns: []schema.Column{
				col("program_acct", "text"),
				col("version", "double precision"),
				col("program_name", "text"),
				col("created_at", "timestamptz"),
				opt("deployed_at", "timestamptz"),
			},
			PrimaryKey: []string{"program_acct"},
			Relationships: []schema.Relationship{
				arr("daos", "daos", "program_acct", "program_acct"),
			},
		},
		{
			Name: "indexers",
			Columns: []schema.Column{
				col("name", "text"),
				col("implementation", "text"),
				col("latest_slot_processed", "bigint"),
				col("indexer_type", "text"),
			},
			PrimaryKey: []string{"name"},
		},
		{
			Name: "signatures",
			Columns: []schema.Column{
				col("signature", "text"),
				col("slot", "bigint"),
				col("did_err", "boolean"),
				opt("err", "text"),
				opt("block_time", "timestamptz"),
				col("inserted_at", "timestamptz"),
				col("seq_num", "bigint"),
			},
			PrimaryKey: []string{"signature"},
			UniqueKeys: map[string][]string{"signatures_seq_num_unique": {"seq_num"}},
		},
	}
}
