package db

import (
	"context"
	"fmt"
	"strings"

	_ "embed"
)

//go:embed schema.sql
var Schema string

// Kind names a table whose rows can be referenced before they are scraped.
type Kind string

const (
	KindForum Kind = "forums"
	KindTopic Kind = "topics"
	KindUser  Kind = "users"
	KindGroup Kind = "groups"
)

// Tables lists every table in the order they are created.
var Tables = []string{"forums", "users", "topics", "posts", "groups", "users_groups", "configs"}

// statements splits the schema, remote drivers only accept one statement per call.
func statements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		lines := strings.Split(stmt, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			kept = append(kept, line)
		}
		stmt = strings.TrimSpace(strings.Join(kept, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// CreateSchema creates every missing table, existing tables are left untouched.
func (q *Queries) CreateSchema(ctx context.Context) error {
	for _, stmt := range statements(Schema) {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
