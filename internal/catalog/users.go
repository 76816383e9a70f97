package catalog

import "futarchy-graph/internal/schema"

func userTables() []schema.Table {
	return []schema.Table{
		{
			Name: "users",
			Columns: []schema.Column{
				col("user_acct", "text"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"user_acct"},
			Relationships: []schema.Relationship{
				arr("orders", "orders", "user_acct", "actor_acct"),
				arr("sessions", "sessions", "user_acct", "user_acct"),
				arr("comments", "comments", "user_acct", "commentor_acct"),
				arr("reactions", "reactions", "user_acct", "reactor_acct"),
			},
		},
		{
			Name: "sessions",
			Columns: []schema.Column{
				col("id", "uuid"),
				opt("user_acct", "text"),
				col("created_at", "timestamptz"),
				opt("expires_at", "timestamptz"),
			},
			PrimaryKey: []string{"id"},
			Relationships: []schema.Relationship{
				obj("user", "users", "user_acct", "user_acct"),
			},
		},
		{
			Name: "comments",
			Columns: []schema.Column{
				col("comment_id", "bigint"),
				col("commentor_acct", "text"),
				col("proposal_acct", "text"),
				col("content", "text"),
				opt("responding_comment_id", "bigint"),
				col("created_at", "timestamptz"),
			},
			PrimaryKey: []string{"comment_id"},
			Relationships: []schema.Relationship{
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
				obj("user", "users", "commentor_acct", "user_acct"),
				obj("comment", "comments", "responding_comment_id", "comment_id"),
				arr("comments", "comments", "comment_id", "responding_comment_id"),
				arr("reactions", "reactions", "comment_id", "comment_id"),
			},
		},
		{
			Name: "reactions",
			Columns: []schema.Column{
				col("reaction_id", "uuid"),
				col("reactor_acct", "text"),
				opt("proposal_acct", "text"),
				opt("comment_id", "bigint"),
				col("reaction", "text"),
				col("updated_at", "timestamptz"),
			},
			PrimaryKey: []string{"reaction_id"},
			Relationships: []schema.Relationship{
				obj("proposal", "proposals", "proposal_acct", "proposal_acct"),
				obj("comment", "comments", "comment_id", "comment_id"),
				obj("user", "users", "reactor_acct", "user_acct"),
			},
		},
	}
}
