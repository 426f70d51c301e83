package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"salesetl/internal/schema"
)

type customerRow struct {
	First     string
	Last      string
	Address   string
	City      string
	CountryID int64
}

// extractCustomers returns the distinct customer tuples, sorted by first then
// last name. The name column is split on the first space only, so
// "Jean Paul Gaultier" keeps "Paul Gaultier" as the last name and a
// single-token "Madonna" gets an empty last name.
func extractCustomers(rows RowIter, countries Lookup, rep *Report) ([]customerRow, error) {
	seen := map[customerRow]bool{}

	for rows.Next() {
		f := rows.Fields()
		if len(f) <= colCountry {
			rep.Skip(SkipShortRow)
			continue
		}
		name := strings.TrimSpace(f[colName])
		country := strings.TrimSpace(f[colCountry])
		if name == "" || country == "" {
			rep.Skip(SkipEmptyValue)
			continue
		}
		countryID, ok := countries.ID(country)
		if !ok {
			rep.Skip(SkipUnknownCountry)
			continue
		}

		first, last := SplitName(name)
		c := customerRow{
			First:     first,
			Last:      last,
			Address:   strings.TrimSpace(f[colAddress]),
			City:      strings.TrimSpace(f[colCity]),
			CountryID: countryID,
		}
		rep.Extracted++
		if seen[c] {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[c] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]customerRow, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.First != b.First {
			return a.First < b.First
		}
		if a.Last != b.Last {
			return a.Last < b.Last
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.Address < b.Address
	})
	return out, nil
}

func runCustomer(ctx context.Context, env stageEnv, rep *Report) error {
	countries, err := BuildLookup(ctx, env.repo, schema.Country.Name, []string{"country"}, "countryid")
	if err != nil {
		return fmt.Errorf("customer stage: %w", err)
	}

	customers, err := extractCustomers(env.rows, countries, rep)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{c.First, c.Last, c.Address, c.City, c.CountryID})
	}

	n, err := insertBatched(ctx, env, schema.Customer.Name, schema.Customer.ColumnNames(), rows)
	rep.Inserted = n
	return err
}
