package pipeline

import (
	"context"
	"fmt"
	"strings"

	"salesetl/internal/metrics"
	"salesetl/internal/schema"
)

// runOrderDetail streams the fact load. Unlike the dimension stages there is
// no global dedupe set: every surviving (customer, product, date, quantity)
// position becomes a row. Rows are buffered up to the batch size and each
// flush is one InsertRows statement.
func runOrderDetail(ctx context.Context, env stageEnv, rep *Report) error {
	customers, err := BuildLookup(ctx, env.repo, schema.Customer.Name, []string{"firstname", "lastname"}, "customerid")
	if err != nil {
		return fmt.Errorf("orderdetail stage: %w", err)
	}
	products, err := BuildLookup(ctx, env.repo, schema.Product.Name, []string{"productname"}, "productid")
	if err != nil {
		return fmt.Errorf("orderdetail stage: %w", err)
	}

	batchSize := env.batchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	columns := schema.OrderDetail.ColumnNames()

	batch := make([][]any, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := env.repo.InsertRows(ctx, schema.OrderDetail.Name, columns, batch)
		rep.Inserted += n
		if err != nil {
			return err
		}
		metrics.RecordBatches(env.job, 1)
		batch = batch[:0]
		return nil
	}

	for env.rows.Next() {
		f := env.rows.Fields()
		if len(f) <= colDates {
			rep.Skip(SkipShortRow)
			continue
		}

		// The customer resolves once per line; its id applies to every
		// order position packed into that line.
		first, last := SplitName(strings.TrimSpace(f[colName]))
		customerID, customerOK := customers.ID(first, last)

		names := SplitList(f[colProducts])
		quantities := SplitList(f[colQuantities])
		dates := SplitList(f[colDates])

		// Lockstep zip: the shortest list bounds the positions that
		// describe a complete order.
		n := len(names)
		if len(quantities) < n {
			n = len(quantities)
		}
		if len(dates) < n {
			n = len(dates)
		}

		for i := 0; i < n; i++ {
			if !customerOK {
				rep.Skip(SkipUnknownCustomer)
				continue
			}
			productID, ok := products.ID(names[i])
			if !ok {
				rep.Skip(SkipUnknownProduct)
				continue
			}
			date, ok := NormalizeDate(dates[i])
			if !ok {
				rep.Skip(SkipInvalidDate)
				continue
			}
			qty, ok := ParseQuantity(quantities[i])
			if !ok {
				// The order stands even when the quantity is garbage;
				// it loads as 0 and the defaulting is counted.
				qty = 0
				rep.Skip(SkipQuantityDefaulted)
			}

			rep.Extracted++
			batch = append(batch, []any{customerID, productID, date, qty})
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	if err := env.rows.Err(); err != nil {
		return err
	}

	return flush()
}
