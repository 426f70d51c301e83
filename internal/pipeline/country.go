package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"salesetl/internal/schema"
)

type countryRow struct {
	Name     string
	RegionID int64
}

// extractCountries returns the distinct (country, regionID) pairs, sorted by
// country name. The region lookup must come from the freshly loaded region
// table so the ids are the ones storage actually assigned.
func extractCountries(rows RowIter, regions Lookup, rep *Report) ([]countryRow, error) {
	type key struct {
		name     string
		regionID int64
	}
	seen := map[key]bool{}

	for rows.Next() {
		f := rows.Fields()
		if len(f) <= colRegion {
			rep.Skip(SkipShortRow)
			continue
		}
		name := strings.TrimSpace(f[colCountry])
		region := strings.TrimSpace(f[colRegion])
		if name == "" || region == "" {
			rep.Skip(SkipEmptyValue)
			continue
		}
		regionID, ok := regions.ID(region)
		if !ok {
			rep.Skip(SkipUnknownRegion)
			continue
		}
		rep.Extracted++
		k := key{name: name, regionID: regionID}
		if seen[k] {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[k] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]countryRow, 0, len(seen))
	for k := range seen {
		out = append(out, countryRow{Name: k.name, RegionID: k.regionID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].RegionID < out[j].RegionID
	})
	return out, nil
}

func runCountry(ctx context.Context, env stageEnv, rep *Report) error {
	regions, err := BuildLookup(ctx, env.repo, schema.Region.Name, []string{"region"}, "regionid")
	if err != nil {
		return fmt.Errorf("country stage: %w", err)
	}

	countries, err := extractCountries(env.rows, regions, rep)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, []any{c.Name, c.RegionID})
	}

	n, err := insertBatched(ctx, env, schema.Country.Name, schema.Country.ColumnNames(), rows)
	rep.Inserted = n
	return err
}
