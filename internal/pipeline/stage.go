package pipeline

import (
	"context"
	"fmt"

	"salesetl/internal/metrics"
	"salesetl/internal/schema"
	"salesetl/internal/storage"
)

// RowIter iterates records of the export file. source.Scanner satisfies it;
// tests use in-memory fakes.
type RowIter interface {
	Next() bool
	Fields() []string
	Err() error
}

// stageEnv bundles the per-stage resources handed to a Stage's Run func:
// a fresh repository, a fresh scan over the export, and batching settings.
type stageEnv struct {
	repo      storage.Repository
	rows      RowIter
	batchSize int
	job       string
}

// Stage is one step of the normalization run.
//
// DependsOn names the stages whose tables this stage resolves foreign keys
// against. The planner refuses to run a pipeline where a dependency is
// missing or ordered after its dependent; this turns a silent wrong-order
// bug into a startup error.
type Stage struct {
	Name      string
	Table     storage.TableSpec
	DependsOn []string
	Run       func(ctx context.Context, env stageEnv, rep *Report) error
}

// Stages returns the full pipeline in execution order: dimensions first,
// parents before children, the orderdetail fact last.
func Stages() []Stage {
	return []Stage{
		{Name: "region", Table: schema.Region, Run: runRegion},
		{Name: "country", Table: schema.Country, DependsOn: []string{"region"}, Run: runCountry},
		{Name: "customer", Table: schema.Customer, DependsOn: []string{"country"}, Run: runCustomer},
		{Name: "productcategory", Table: schema.ProductCategory, Run: runProductCategory},
		{Name: "product", Table: schema.Product, DependsOn: []string{"productcategory"}, Run: runProduct},
		{Name: "orderdetail", Table: schema.OrderDetail, DependsOn: []string{"customer", "product"}, Run: runOrderDetail},
	}
}

// ValidatePlan checks that every stage's dependencies appear earlier in the
// plan and that no stage name repeats.
func ValidatePlan(stages []Stage) error {
	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return fmt.Errorf("stage[%d]: name is empty", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("stage %s: duplicate stage name", s.Name)
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("stage %s: dependency %s does not run earlier in the plan", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return nil
}

// insertBatched writes rows in batchSize chunks, each chunk one InsertRows
// statement, and returns the total inserted.
func insertBatched(ctx context.Context, env stageEnv, table string, columns []string, rows [][]any) (int64, error) {
	batchSize := env.batchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := env.repo.InsertRows(ctx, table, columns, rows[start:end])
		if err != nil {
			return total, err
		}
		total += n
		metrics.RecordBatches(env.job, 1)
	}
	return total, nil
}
