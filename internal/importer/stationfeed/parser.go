package stationfeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/fleetspend/internal/encoding"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

// Parser reads semicolon separated station feed exports and produces purchase params.
// It auto-detects the layout (rede, cartão frota, simples) by matching column headers
// against known profiles.
type Parser struct {
	loc *time.Location
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}

	return &Parser{loc: loc}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching station feed format found: expected columns for rede, cartão frota, or simples")
	}

	return p.parseRows(profile, colMap, rows[headerIdx+1:], headerIdx)
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

func (c colIndex) index(name string) int {
	if name == "" {
		return -1
	}

	if i, ok := c[name]; ok {
		return i
	}

	return -1
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts purchases from data rows using the matched profile.
// headerIdx is the 0-based index of the header in the original file (for error messages).
// Rows without a parseable date (totals, page footers) are skipped, as are non-fuel products
// such as ARLA or lubricants.
func (p *Parser) parseRows(pr *Profile, cols colIndex, rows [][]string, headerIdx int) ([]transaction.CreateParams, error) {
	var txs []transaction.CreateParams

	for i, row := range rows {
		rowNum := headerIdx + i + 2 // 1-based, skipping header

		date, ok := p.parseDate(cellValue(row, cols.index(pr.DateCol)), cellValue(row, cols.index(pr.TimeCol)))
		if !ok {
			continue
		}

		fuelType, ok := parseProduct(cellValue(row, cols.index(pr.ProductCol)))
		if !ok {
			continue
		}

		plate := cellValue(row, cols.index(pr.PlateCol))
		if plate == "" {
			return nil, fmt.Errorf("row %d: missing license plate", rowNum)
		}

		station := cellValue(row, cols.index(pr.StationCol))
		if station == "" {
			return nil, fmt.Errorf("row %d: missing station", rowNum)
		}

		liters, err := parseNumber(cellValue(row, cols.index(pr.LitersCol)))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid liters: %w", rowNum, err)
		}

		price, err := parseNumber(cellValue(row, cols.index(pr.PriceCol)))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price per liter: %w", rowNum, err)
		}

		txs = append(txs, transaction.CreateParams{
			LicensePlate:  plate,
			FuelType:      fuelType,
			Liters:        liters,
			PricePerLiter: price,
			StationID:     cellValue(row, cols.index(pr.StationIDCol)),
			StationName:   station,
			Date:          date,
			Status:        transaction.StatusCompleted,
		})
	}

	return txs, nil
}

var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate reads a dd/mm/yyyy (or ISO) date, optionally joined with a separate time cell.
func (p *Parser) parseDate(date, clock string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}

	s := date
	if clock != "" {
		s += " " + clock
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseProduct returns a nil type for an empty cell. ok is false for non-fuel products.
func parseProduct(s string) (*fuel.Type, bool) {
	if s == "" {
		return nil, true
	}

	t, ok := fuel.FromProductName(s)
	if !ok {
		return nil, false
	}

	return &t, true
}

func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty value")
	}

	return money.ParseBR(s)
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
