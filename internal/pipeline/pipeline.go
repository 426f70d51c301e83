package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/schema"
	"salesetl/internal/source"
	"salesetl/internal/storage"
)

// Source is a closable record iterator over the export file.
type Source interface {
	RowIter
	Close() error
}

// Runner executes the staged normalization described by a pipeline config.
//
// Each stage gets a fresh repository connection and a fresh scan of the
// export file; nothing is shared across stage boundaries except what lives
// in the database. A storage error halts the run at the failing stage (the
// tables loaded so far stay loaded); bad input data never does, it is
// counted in the stage report instead.
type Runner struct {
	Config config.Pipeline

	// NewRepository is a seam for tests; defaults to storage.New.
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// OpenSource is a seam for tests; defaults to opening Config.Source.
	OpenSource func() (Source, error)
}

// Run executes all stages in order and returns their reports. On error the
// reports of completed stages (plus the failing one) are still returned.
func (r *Runner) Run(ctx context.Context) ([]*Report, error) {
	stages := Stages()
	if err := ValidatePlan(stages); err != nil {
		return nil, err
	}

	job := r.Config.Job
	if job == "" {
		job = "etl"
	}

	var reports []*Report
	for _, st := range stages {
		rep := NewReport(st.Name)
		start := time.Now()

		err := r.runStage(ctx, st, job, rep)

		d := time.Since(start)
		metrics.RecordStage(job, st.Name, err, d)
		metrics.RecordRow(job, "extracted", int64(rep.Extracted))
		metrics.RecordRow(job, "inserted", rep.Inserted)
		for reason, c := range rep.Skipped {
			metrics.RecordRow(job, reason, int64(c))
		}

		reports = append(reports, rep)
		log.Printf("%s duration=%s", rep, d.Truncate(time.Millisecond))

		if err != nil {
			return reports, fmt.Errorf("stage %s: %w", st.Name, err)
		}
	}
	return reports, nil
}

func (r *Runner) runStage(ctx context.Context, st Stage, job string, rep *Report) error {
	repo, err := r.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RecreateTable(ctx, st.Table); err != nil {
		return err
	}

	rows, err := r.openSource()
	if err != nil {
		return err
	}
	defer rows.Close()

	env := stageEnv{
		repo:      repo,
		rows:      rows,
		batchSize: r.Config.Runtime.EffectiveBatchSize(),
		job:       job,
	}
	return st.Run(ctx, env, rep)
}

// TableCounts queries the post-run row count of every destination table, in
// dependency order. Used for the end-of-run summary.
func (r *Runner) TableCounts(ctx context.Context) ([]TableCount, error) {
	repo, err := r.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	var out []TableCount
	for _, t := range schema.All() {
		n, err := repo.CountRows(ctx, t.Name)
		if err != nil {
			return out, err
		}
		out = append(out, TableCount{Table: t.Name, Rows: n})
	}
	return out, nil
}

// TableCount is one line of the end-of-run summary.
type TableCount struct {
	Table string
	Rows  int64
}

func (r *Runner) newRepository(ctx context.Context) (storage.Repository, error) {
	newRepo := r.NewRepository
	if newRepo == nil {
		newRepo = storage.New
	}
	return newRepo(ctx, storage.Config{
		Kind: r.Config.Storage.Kind,
		DSN:  r.Config.Storage.DSN,
	})
}

func (r *Runner) openSource() (Source, error) {
	if r.OpenSource != nil {
		return r.OpenSource()
	}
	return source.Open(r.Config.Source.Path, source.Options{
		Encoding:  r.Config.Source.Encoding,
		HasHeader: true,
	})
}
