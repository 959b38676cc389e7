package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KirGorbunov/weather-test-task/internal/store"
	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

// columns is the spreadsheet header row, in persisted column order.
var columns = []interface{}{
	"Timestamp", "Latitude", "Longitude", "Temperature", "Wind Speed",
	"Wind Direction", "Pressure", "Precipitation", "Rain", "Showers", "Snowfall",
}

// Service exports the most recent readings to an Excel workbook. Each export
// produces a new file named <prefix>_<YYYYMMDD_HHMMSS>.xlsx in dir.
type Service struct {
	store  store.Store
	dir    string
	prefix string
	rows   int
	logger *slog.Logger
}

// NewService creates an export service capped at rows records per export.
func NewService(st store.Store, dir, prefix string, rows int, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		dir:    dir,
		prefix: prefix,
		rows:   rows,
		logger: logger,
	}
}

// Export reads the newest records and writes them to a timestamped workbook.
// An empty store still produces a workbook with just the header row.
func (s *Service) Export(ctx context.Context) (string, error) {
	records, err := s.store.RecentRecords(ctx, s.rows)
	if err != nil {
		return "", fmt.Errorf("read recent records: %w", err)
	}

	name := fmt.Sprintf("%s_%s.xlsx", s.prefix, time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	if err := writeWorkbook(path, records); err != nil {
		return "", err
	}

	s.logger.Info("exported weather records", "file", path, "records", len(records))
	return path, nil
}

func writeWorkbook(path string, records []weather.Record) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close workbook", "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, rec := range records {
		row := []interface{}{
			// Timezone stripped for display; stored instants are UTC already.
			rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			rec.Latitude,
			rec.Longitude,
			cell(rec.Temperature),
			cell(rec.WindSpeed),
			stringCell(rec.WindDirection),
			cell(rec.Pressure),
			cell(rec.Precipitation),
			cell(rec.Rain),
			cell(rec.Showers),
			cell(rec.Snowfall),
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("write record row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
