package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	"salesetl/internal/metrics/prompush"
	"salesetl/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "salesetl/internal/storage/all"
)

// main is the entry point for the etl binary. It loads the pipeline config,
// optionally initializes a metrics backend, and executes the staged run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config path (.json or .yaml)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (datadog, pushgateway, none); defaults to env METRICS_BACKEND, then none")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	jobName := p.Job
	if jobName == "" {
		jobName = "etl"
	}

	ctx := context.Background()

	backendName := resolveMetricsBackend(metricsBackendFlg, os.Getenv("METRICS_BACKEND"))
	cleanup := setupMetrics(ctx, jobName, backendName, pushGatewayURLFlg, *verbose)
	defer cleanup()

	start := time.Now()

	if *verbose {
		log.Printf("pipeline: job=%s source=%s storage=%s batch_size=%d",
			jobName, p.Source.Path, p.Storage.Kind, p.Runtime.EffectiveBatchSize())
	}

	r := &pipeline.Runner{Config: p}
	if _, err := r.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	counts, err := r.TableCounts(ctx)
	if err != nil {
		log.Fatalf("summary: %v", err)
	}
	for _, c := range counts {
		log.Printf("table=%s rows=%d", c.Table, c.Rows)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// resolveMetricsBackend picks the metrics backend: flag → env → "none".
func resolveMetricsBackend(flagVal, envVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	return "none"
}

// setupMetrics wires the selected metrics backend into the global metrics
// package and returns a cleanup that flushes and shuts it down. On any init
// failure the nop backend stays installed, so the run proceeds unmetered
// rather than failing.
func setupMetrics(ctx context.Context, jobName, backendName, gwURL string, verbose bool) func() {
	nop := func() {}

	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return nop
		}
		log.Printf("metrics: backend=%v url=%v job_name=%v", backendName, gwURL, jobName)
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
		}

	case "datadog":
		// The Datadog backend buffers metrics and submits periodically, with
		// one final submit at shutdown, so long runs produce a real time
		// series instead of a single spike at exit.
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))

		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       extraTags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return nop
		}
		log.Printf("metrics: backend=%v job_name=%v tags=%v", backendName, jobName, extraTags)
		metrics.SetBackend(b)

		// Close() stops the periodic flush loop and then performs a final
		// Flush(). This is the clean shutdown path for the Datadog backend.
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: datadog close/flush error: %v", err)
			}
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return nop

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return nop
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
