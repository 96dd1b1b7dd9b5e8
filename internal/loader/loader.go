package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"menuopt/internal/models"

	"github.com/xuri/excelize/v2"
)

// Header names of the menu sheet
const (
	ColumnDish          = "Dish"
	ColumnIngredients   = "Ingredients"
	ColumnWeeklyOrders  = "Weekly Orders"
	ColumnWasteCost     = "Waste in cost"
	ColumnProfitMargin  = "Dish Profit Margin ₹"
	ColumnKeepRemove    = "Keep/Remove"
	ColumnSuggestedDish = "Suggested Dishes"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoHeader          = errors.New("header row not found")
	ErrMissingColumn     = errors.New("required column missing")
)

// LoadError reports why a menu file could not be turned into a dataset.
// It is always fatal: no partial dataset accompanies it.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load menu: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("load menu %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Columns maps each menu field to its exact header text
type Columns struct {
	Dish          string `yaml:"dish"`
	Ingredients   string `yaml:"ingredients"`
	WeeklyOrders  string `yaml:"weekly_orders"`
	WasteCost     string `yaml:"waste_cost"`
	ProfitMargin  string `yaml:"profit_margin"`
	KeepRemove    string `yaml:"keep_remove"`
	SuggestedDish string `yaml:"suggested_dish"`
}

// DefaultColumns returns the header names used by the menu workbook
func DefaultColumns() Columns {
	return Columns{
		Dish:          ColumnDish,
		Ingredients:   ColumnIngredients,
		WeeklyOrders:  ColumnWeeklyOrders,
		WasteCost:     ColumnWasteCost,
		ProfitMargin:  ColumnProfitMargin,
		KeepRemove:    ColumnKeepRemove,
		SuggestedDish: ColumnSuggestedDish,
	}
}

func (c Columns) ordered() []string {
	return []string{c.Dish, c.Ingredients, c.WeeklyOrders, c.WasteCost, c.ProfitMargin, c.KeepRemove, c.SuggestedDish}
}

// Options controls how a sheet is read
type Options struct {
	// Sheet names the workbook sheet; empty means the first sheet.
	Sheet string
	// SkipRows is the number of leading rows above the header.
	SkipRows int
	Columns  Columns
}

// DefaultOptions matches the layout of the menu workbook
func DefaultOptions() Options {
	return Options{
		Sheet:    "Sheet1",
		SkipRows: 3,
		Columns:  DefaultColumns(),
	}
}

// LoadFile reads a menu file, choosing the parser by extension
func LoadFile(path string, opts Options) ([]models.MenuRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	var rows []models.MenuRow
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = ReadXLSX(f, opts)
	case ".csv":
		rows, err = ReadCSV(f, opts)
	default:
		return nil, &LoadError{Op: "detect format", Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Op: "read", Path: path, Err: err}
	}
	return rows, nil
}

// ReadCSV parses comma separated menu data
func ReadCSV(r io.Reader, opts Options) ([]models.MenuRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Op: "parse csv", Err: err}
	}
	return buildRows(records, opts)
}

// ReadXLSX parses an Excel workbook
func ReadXLSX(r io.Reader, opts Options) ([]models.MenuRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Op: "open workbook", Err: err}
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Op: "read sheet " + sheet, Err: err}
	}
	return buildRows(records, opts)
}

func buildRows(records [][]string, opts Options) ([]models.MenuRow, error) {
	cols := opts.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	if opts.SkipRows < 0 || opts.SkipRows >= len(records) {
		return nil, &LoadError{Op: "locate header", Err: fmt.Errorf("%w after skipping %d rows", ErrNoHeader, opts.SkipRows)}
	}

	header := records[opts.SkipRows]
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	positions := make([]int, 0, 7)
	for _, name := range cols.ordered() {
		pos, ok := index[name]
		if !ok {
			return nil, &LoadError{Op: "map columns", Err: fmt.Errorf("%w: %q", ErrMissingColumn, name)}
		}
		positions = append(positions, pos)
	}

	cell := func(record []string, col int) string {
		pos := positions[col]
		if pos >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[pos])
	}

	rows := make([]models.MenuRow, 0, len(records)-opts.SkipRows-1)
	for _, record := range records[opts.SkipRows+1:] {
		dish := cell(record, 0)
		if dish == "" {
			continue
		}
		rows = append(rows, models.MenuRow{
			Dish:          dish,
			Ingredients:   cell(record, 1),
			WeeklyOrders:  models.ParseAmount(cell(record, 2)),
			WasteCost:     models.ParseAmount(cell(record, 3)),
			ProfitMargin:  models.ParseAmount(cell(record, 4)),
			KeepRemove:    cell(record, 5),
			SuggestedDish: cell(record, 6),
		})
	}
	return rows, nil
}
