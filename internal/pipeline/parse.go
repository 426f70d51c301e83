// Package pipeline implements the six-stage normalization of the
// tab-delimited sales export into region, country, customer,
// productcategory, product and orderdetail tables.
package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// Source column positions in the export. One line carries the customer
// fields plus semicolon-packed parallel lists describing that customer's
// orders.
const (
	colName        = 0
	colAddress     = 1
	colCity        = 2
	colCountry     = 3
	colRegion      = 4
	colProducts    = 5
	colCategories  = 6
	colDescription = 7
	colPrices      = 8
	colQuantities  = 9
	colDates       = 10
)

// SplitName splits a full customer name into (first, last) on the first
// space only: "Jean Paul Gaultier" -> ("Jean", "Paul Gaultier"),
// "Madonna" -> ("Madonna", "").
func SplitName(full string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// SplitList splits a semicolon-packed list field into trimmed elements.
// An empty field yields a single empty element, matching the positional
// semantics of the export (position i of every list describes order i).
func SplitList(field string) []string {
	parts := strings.Split(field, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ParsePrice parses a product unit price. Prices must be non-negative
// numbers; anything else is rejected.
func ParsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// ParseQuantity coerces a quantity string to an integer by parsing as a
// float and truncating ("3.9" -> 3). Unparseable or negative quantities
// report ok=false; callers still insert the row with quantity 0, they just
// count the defaulting.
func ParseQuantity(s string) (qty int, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

// dateLayouts are the delimited forms accepted beside the compact 8-digit
// form. All normalize to YYYY-MM-DD.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// NormalizeDate normalizes an order date to YYYY-MM-DD.
//
// The compact form "20230115" is validated as a real calendar date before
// being reformatted; "20231399" is not a date and is rejected rather than
// sliced blindly.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && isDigits(s) {
		t, err := time.Parse("20060102", s)
		if err != nil {
			return "", false
		}
		return t.Format("2006-01-02"), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
