package projections

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// ExportCSV streams a filtered listing as CSV. Money columns are
// formatted with grouping separators for the requested locale; raw
// decimals stay available through the JSON listing.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, role shared.Role, req ListRequest, locale string) error {
	req.Scope(role)
	// Exports bypass the cache and page through the repository directly.
	req.Limit = 200
	req.Offset = 0

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)

	cw := csv.NewWriter(w)
	header := []string{"id", "kind", "item", "quantity", "unit_price", "total", "stage", "status", "condition", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for {
		rows, _, err := s.repo.List(ctx, req)
		if err != nil {
			return fmt.Errorf("export page at offset %d: %w", req.Offset, err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			record := []string{
				row.ID,
				row.Kind,
				row.ItemName,
				printer.Sprintf("%d", row.Quantity),
				formatMoney(printer, row.UnitPrice),
				formatMoney(printer, row.Total),
				row.Stage,
				row.Status,
				row.Condition,
				row.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		if len(rows) < req.Limit {
			break
		}
		req.Offset += req.Limit
	}
	cw.Flush()
	return cw.Error()
}

func formatMoney(printer *message.Printer, raw string) string {
	dec, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	value, _ := dec.Float64()
	return printer.Sprintf("%.2f", value)
}
