// Package export renders price records as spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
)

const sheet = "Prices"

var headers = []string{
	"Extracted At",
	"Store",
	"Product",
	"Price",
	"Status",
	"Confidence",
	"Location",
	"Image Path",
}

// Service produces XLSX bytes for record exports.
type Service struct {
	records repository.RecordRepository
	stores  repository.StoreRepository
	logger  *slog.Logger
}

func NewService(records repository.RecordRepository, stores repository.StoreRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, stores: stores, logger: logger}
}

// ExportRecordsXLSX returns a workbook with one row per record matching
// filter, newest first.
func (s *Service) ExportRecordsXLSX(ctx context.Context, filter entity.RecordFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	storeNames, err := s.storeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, bold)
	}

	for i, r := range recs {
		var store string
		if r.StoreID != nil {
			store = storeNames[*r.StoreID]
		}
		var confidence any = ""
		if r.ConfidenceScore != nil {
			confidence = *r.ConfidenceScore
		}
		row := []any{
			r.ExtractedAt.UTC().Format(time.DateTime),
			store,
			r.ProductName,
			r.Price,
			string(r.Status),
			confidence,
			r.Location(),
			r.ImagePath,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // extracted at
	_ = f.SetColWidth(sheet, "B", "B", 22) // store
	_ = f.SetColWidth(sheet, "C", "C", 36) // product
	_ = f.SetColWidth(sheet, "D", "F", 14)
	_ = f.SetColWidth(sheet, "G", "G", 20)
	_ = f.SetColWidth(sheet, "H", "H", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) storeNames(ctx context.Context) (map[uuid.UUID]string, error) {
	list, err := s.stores.List(ctx, entity.StoreFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(list))
	for _, st := range list {
		out[st.ID] = st.StoreName
	}
	return out, nil
}
