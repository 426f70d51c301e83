package pipeline

import (
	"context"
	"fmt"
	"sort"

	"salesetl/internal/schema"
)

type productRow struct {
	Name       string
	Price      float64
	CategoryID int64
}

// extractProducts zips the product, category and price lists positionally
// and returns the distinct (name, price, categoryID) triples, sorted by
// name. A position with an unparseable or negative price is a data error
// and is skipped; the surrounding positions still load.
func extractProducts(rows RowIter, categories Lookup, rep *Report) ([]productRow, error) {
	seen := map[productRow]bool{}

	for rows.Next() {
		f := rows.Fields()
		if len(f) <= colPrices {
			rep.Skip(SkipShortRow)
			continue
		}
		names := SplitList(f[colProducts])
		cats := SplitList(f[colCategories])
		prices := SplitList(f[colPrices])

		n := len(names)
		if len(cats) < n {
			n = len(cats)
		}
		if len(prices) < n {
			n = len(prices)
		}
		for i := 0; i < n; i++ {
			if names[i] == "" {
				rep.Skip(SkipEmptyValue)
				continue
			}
			price, ok := ParsePrice(prices[i])
			if !ok {
				rep.Skip(SkipInvalidPrice)
				continue
			}
			categoryID, ok := categories.ID(cats[i])
			if !ok {
				rep.Skip(SkipUnknownCategory)
				continue
			}
			rep.Extracted++
			p := productRow{Name: names[i], Price: price, CategoryID: categoryID}
			if seen[p] {
				rep.Skip(SkipDuplicate)
				continue
			}
			seen[p] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]productRow, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Price < out[j].Price
	})
	return out, nil
}

func runProduct(ctx context.Context, env stageEnv, rep *Report) error {
	categories, err := BuildLookup(ctx, env.repo, schema.ProductCategory.Name, []string{"productcategory"}, "productcategoryid")
	if err != nil {
		return fmt.Errorf("product stage: %w", err)
	}

	products, err := extractProducts(env.rows, categories, rep)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.Name, p.Price, p.CategoryID})
	}

	n, err := insertBatched(ctx, env, schema.Product.Name, schema.Product.ColumnNames(), rows)
	rep.Inserted = n
	return err
}
