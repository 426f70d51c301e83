package config

import (
	"strings"
	"testing"
)

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, i := range issues {
		if i.Path == path {
			return i, true
		}
	}
	return Issue{}, false
}

func validPipeline() Pipeline {
	return Pipeline{
		Job:     "sales_normalize",
		Source:  Source{Path: "data/sales.txt", Encoding: "utf-8"},
		Storage: Storage{Kind: "postgres", DSN: "postgresql://localhost/sales"},
		Runtime: RuntimeConfig{BatchSize: 5000},
	}
}

func TestValidatePipelineClean(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("valid pipeline produced issues: %v", issues)
	}
}

func TestValidatePipelineFindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Pipeline)
		path     string
		severity IssueSeverity
	}{
		{"empty job warns", func(p *Pipeline) { p.Job = "" }, "job", SeverityWarning},
		{"missing source path", func(p *Pipeline) { p.Source.Path = "" }, "source.path", SeverityError},
		{"bad encoding", func(p *Pipeline) { p.Source.Encoding = "ebcdic" }, "source.encoding", SeverityError},
		{"missing storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind", SeverityError},
		{"unknown storage kind warns", func(p *Pipeline) { p.Storage.Kind = "oracle" }, "storage.kind", SeverityWarning},
		{"missing dsn", func(p *Pipeline) { p.Storage.DSN = "" }, "storage.dsn", SeverityError},
		{"negative batch size", func(p *Pipeline) { p.Runtime.BatchSize = -1 }, "runtime.batch_size", SeverityError},
		{"tiny batch size warns", func(p *Pipeline) { p.Runtime.BatchSize = 10 }, "runtime.batch_size", SeverityWarning},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)

			issue, ok := findIssue(ValidatePipeline(p), tc.path)
			if !ok {
				t.Fatalf("no issue at %s", tc.path)
			}
			if issue.Severity != tc.severity {
				t.Errorf("severity = %s, want %s", issue.Severity, tc.severity)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Path: "storage.dsn", Message: "storage.dsn must not be empty"}
	if got := i.Error(); !strings.Contains(got, "storage.dsn") || !strings.Contains(got, "error") {
		t.Errorf("Error() = %q", got)
	}
}
