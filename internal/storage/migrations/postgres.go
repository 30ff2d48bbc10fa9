package migrations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dip-strategy-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded Postgres schema files in
// lexical order. Statements are idempotent so re-running is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	entries, err := PostgresFS.ReadDir("postgres")
	if err != nil {
		return fmt.Errorf("read postgres migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := PostgresFS.ReadFile("postgres/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
