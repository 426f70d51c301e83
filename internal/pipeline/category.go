package pipeline

import (
	"context"
	"sort"

	"salesetl/internal/schema"
)

type categoryRow struct {
	Name        string
	Description string
}

// extractCategories zips the category and description lists positionally and
// returns the distinct pairs, sorted by name. The zip truncates at the
// shorter list; positions without a counterpart describe nothing and are
// dropped silently by the truncation, not counted. A pair survives only
// when both sub-values are non-empty.
func extractCategories(rows RowIter, rep *Report) ([]categoryRow, error) {
	seen := map[categoryRow]bool{}

	for rows.Next() {
		f := rows.Fields()
		if len(f) <= colDescription {
			rep.Skip(SkipShortRow)
			continue
		}
		names := SplitList(f[colCategories])
		descs := SplitList(f[colDescription])

		n := len(names)
		if len(descs) < n {
			n = len(descs)
		}
		for i := 0; i < n; i++ {
			if names[i] == "" || descs[i] == "" {
				rep.Skip(SkipEmptyValue)
				continue
			}
			rep.Extracted++
			c := categoryRow{Name: names[i], Description: descs[i]}
			if seen[c] {
				rep.Skip(SkipDuplicate)
				continue
			}
			seen[c] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]categoryRow, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}

func runProductCategory(ctx context.Context, env stageEnv, rep *Report) error {
	categories, err := extractCategories(env.rows, rep)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []any{c.Name, c.Description})
	}

	n, err := insertBatched(ctx, env, schema.ProductCategory.Name, schema.ProductCategory.ColumnNames(), rows)
	rep.Inserted = n
	return err
}
