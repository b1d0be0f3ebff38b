package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goimpute/domain/dataset"
	"goimpute/domain/matrix"
	"goimpute/internal"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// TableSource reads a CSV or XLSX file holding one flattened image per row.
// A first row that does not parse as numbers is treated as a header.
type TableSource struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	shape    matrix.Shape
	logger   *internal.Logger
}

// NewTableSource creates a table source; the file type follows the extension
func NewTableSource(filePath string, shape matrix.Shape) *TableSource {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &TableSource{
		filePath: filePath,
		fileType: fileType,
		sheet:    "Sheet1",
		shape:    shape,
		logger:   internal.DefaultLogger,
	}
}

// Load reads the file and returns the matrix scaled to [0, 1]
func (s *TableSource) Load(ctx context.Context) (*dataset.Faces, error) {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(s.fileType), s.filePath)
	}

	start := time.Now()
	var (
		records [][]string
		err     error
	)
	switch s.fileType {
	case "csv":
		records, err = s.readCSV()
	default:
		records, err = s.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := parseRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.filePath, err)
	}
	m, err := dataset.FromRows(rows, s.shape)
	if err != nil {
		return nil, err
	}
	if err := normalizeIntensities(m); err != nil {
		return nil, err
	}

	s.logger.Info("[TableSource] %s file read in %.2fms (%d images)", s.fileType,
		float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return dataset.NewFaces(m, s.shape, s.filePath)
}

func (s *TableSource) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.sheet, err)
	}
	return rows, nil
}

func (s *TableSource) readCSV() ([][]string, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func parseRecords(records [][]string) ([][]float64, error) {
	if len(records) > 0 && !isNumericRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table has no data rows")
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isNumericRecord(record []string) bool {
	for _, cell := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return false
		}
	}
	return len(record) > 0
}

// normalizeIntensities rescales 8-bit (or larger) pixel tables into [0, 1].
// Tables already in [0, 1] are left untouched.
func normalizeIntensities(m *mat.Dense) error {
	raw := m.RawMatrix().Data
	hi, err := stats.Max(raw)
	if err != nil {
		return fmt.Errorf("failed to scan intensities: %w", err)
	}
	lo, _ := stats.Min(raw)
	if lo < 0 {
		return fmt.Errorf("negative pixel intensity %g", lo)
	}
	if hi <= 1 {
		return nil
	}
	scale := 255.0
	if hi > 255 {
		scale = hi
	}
	m.Scale(1/scale, m)
	return nil
}
