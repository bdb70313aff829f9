package projections

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

func TestExportCSV(t *testing.T) {
	repo := &memoryReadRepo{rows: []OrderRow{
		{ID: "a", Kind: "sale", ItemName: "Radio", Quantity: 2, UnitPrice: "1250.50", Total: "2501.00",
			Stage: "accounting", Status: "invoiced", CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}}
	svc := NewService(repo, NewCache(nil, time.Minute))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, shared.RoleAdmin, ListRequest{}, "en"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "id", records[0][0])
	require.Equal(t, "a", records[1][0])
	require.Equal(t, "Radio", records[1][2])
	require.Equal(t, "1,250.50", records[1][4])
	require.Equal(t, "2,501.00", records[1][5])
	require.Equal(t, "2026-03-01 10:00:00", records[1][9])
}

func TestExportCSVUnknownLocaleFallsBack(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, NewCache(nil, time.Minute))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, shared.RoleAdmin, ListRequest{}, "??"))
	require.NotEmpty(t, buf.String())
}
