package pipeline

import (
	"context"
	"sort"
	"strings"

	"salesetl/internal/schema"
)

// extractRegions scans the export and returns the distinct region labels,
// sorted. Duplicates across lines are counted, not errors: every line of the
// export repeats its customer's region.
func extractRegions(rows RowIter, rep *Report) ([]string, error) {
	seen := map[string]bool{}
	for rows.Next() {
		f := rows.Fields()
		if len(f) <= colRegion {
			rep.Skip(SkipShortRow)
			continue
		}
		name := strings.TrimSpace(f[colRegion])
		if name == "" {
			rep.Skip(SkipEmptyValue)
			continue
		}
		rep.Extracted++
		if seen[name] {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func runRegion(ctx context.Context, env stageEnv, rep *Report) error {
	names, err := extractRegions(env.rows, rep)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		rows = append(rows, []any{name})
	}

	n, err := insertBatched(ctx, env, schema.Region.Name, schema.Region.ColumnNames(), rows)
	rep.Inserted = n
	return err
}
