package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// Skip reasons. Every record a stage drops or patches is counted under one
// of these so a run is observable without being fatal on bad data.
const (
	SkipShortRow          = "short_row"          // line has too few tab-separated fields for this stage
	SkipEmptyValue        = "empty_value"        // required field is blank after trimming
	SkipUnknownRegion     = "unknown_region"     // region label not present in the region table
	SkipUnknownCountry    = "unknown_country"    // country name not present in the country table
	SkipUnknownCustomer   = "unknown_customer"   // rebuilt full name not present in the customer table
	SkipUnknownCategory   = "unknown_category"   // category name not present in the productcategory table
	SkipUnknownProduct    = "unknown_product"    // product name not present in the product table
	SkipInvalidPrice      = "invalid_price"      // unit price failed to parse as a non-negative number
	SkipInvalidDate       = "invalid_date"       // order date failed to normalize to YYYY-MM-DD
	SkipDuplicate         = "duplicate"          // record already seen in this run
	SkipQuantityDefaulted = "quantity_defaulted" // quantity unparseable; row inserted with 0
)

// Report summarizes one stage of a run: how many records the stage saw,
// how many rows it inserted, and per-reason counts for everything else.
// SkipQuantityDefaulted is the one reason that does not reduce Inserted.
type Report struct {
	Stage     string
	Extracted int
	Inserted  int64
	Skipped   map[string]int
}

func NewReport(stage string) *Report {
	return &Report{Stage: stage, Skipped: map[string]int{}}
}

// Skip counts one record under reason.
func (r *Report) Skip(reason string) {
	r.Skipped[reason]++
}

// TotalSkipped sums all skip reasons except quantity_defaulted, which marks
// patched rows rather than dropped ones.
func (r *Report) TotalSkipped() int {
	n := 0
	for reason, c := range r.Skipped {
		if reason == SkipQuantityDefaulted {
			continue
		}
		n += c
	}
	return n
}

// String renders the report as a key=value log line.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage=%s extracted=%d inserted=%d skipped=%d", r.Stage, r.Extracted, r.Inserted, r.TotalSkipped())

	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(&b, " %s=%d", reason, r.Skipped[reason])
	}
	return b.String()
}
