package workbook

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
)

// Sheet layout: row 1 carries the config cell, row 2 the header
// labels, rows 3+ one tracked product each.
const (
	configRowNum  = 1
	headerRowNum  = 2
	firstDataRow  = 3
	dateCellLabel = "2006-01-02"
)

var reDateHeader = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateColumn pairs a calendar day with its zero-based sheet column.
type DateColumn struct {
	Date time.Time
	Col  int
}

// Workbook is the in-memory model of a tracked-product sheet. It owns
// all column and day bookkeeping; only the run orchestrator mutates it.
type Workbook struct {
	file  *excelize.File
	sheet string
	cfg   SheetConfig
	dates []DateColumn
	rows  []*model.ProductRow
	width int

	styleDown int
	styleUp   int
}

// Load opens and validates a workbook file.
func Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return build(f)
}

func build(f *excelize.File) (*Workbook, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, &ConfigError{Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < headerRowNum {
		_ = f.Close()
		return nil, &ConfigError{Reason: "sheet is missing the header row"}
	}

	header := rows[headerRowNum-1]
	cfg, err := parseSheetConfig(rows[configRowNum-1], len(header))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := &Workbook{
		file:  f,
		sheet: sheet,
		cfg:   cfg,
		width: len(header),
	}

	seen := make(map[string]bool)
	for col, label := range header {
		if cfg.IsRoleCol(col) {
			continue
		}
		label = strings.TrimSpace(label)
		if !reDateHeader.MatchString(label) {
			continue
		}
		date, perr := time.Parse(dateCellLabel, label)
		if perr != nil {
			continue
		}
		if seen[label] {
			_ = f.Close()
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate date column %s", label)}
		}
		seen[label] = true
		w.dates = append(w.dates, DateColumn{Date: date, Col: col})
	}

	for i, row := range rows[firstDataRow-1:] {
		link := strings.TrimSpace(cellAt(row, cfg.LinkCol))
		if link == "" {
			continue
		}
		pr := &model.ProductRow{
			SheetRow: firstDataRow + i,
			Link:     link,
			Var1:     strings.TrimSpace(cellAt(row, cfg.Var1Col)),
			Var2:     strings.TrimSpace(cellAt(row, cfg.Var2Col)),
		}
		for _, dc := range w.dates {
			raw := strings.TrimSpace(cellAt(row, dc.Col))
			if raw == "" {
				continue
			}
			price, ok := parsePriceCell(raw)
			if !ok {
				continue
			}
			pr.History = append(pr.History, model.PricePoint{
				Date:  dc.Date,
				Price: price,
				OK:    true,
			})
		}
		w.rows = append(w.rows, pr)
	}

	return w, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// parsePriceCell reads a numeric price cell. Thousands separators are
// tolerated; anything else is treated as blank.
func parsePriceCell(raw string) (int64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int64(math.Round(f)), true
}

// Config returns the parsed column role configuration.
func (w *Workbook) Config() SheetConfig {
	return w.cfg
}

// Rows returns the tracked products in sheet order.
func (w *Workbook) Rows() []*model.ProductRow {
	return w.rows
}

// DateColumns returns the recognized date columns in sheet order.
func (w *Workbook) DateColumns() []DateColumn {
	return w.dates
}

// EnsureDateColumn returns the column for the given calendar day,
// appending exactly one new column at the end of the sheet when the
// day is not present yet. Calling it twice for the same day is a
// no-op on the second call.
func (w *Workbook) EnsureDateColumn(date time.Time) (int, error) {
	y, m, d := date.Date()
	for _, dc := range w.dates {
		cy, cm, cd := dc.Date.Date()
		if cy == y && cm == m && cd == d {
			return dc.Col, nil
		}
	}

	col := w.width
	cell, err := excelize.CoordinatesToCellName(col+1, headerRowNum)
	if err != nil {
		return 0, fmt.Errorf("date column coordinates: %w", err)
	}
	label := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if err := w.file.SetCellValue(w.sheet, cell, label.Format(dateCellLabel)); err != nil {
		return 0, fmt.Errorf("write date header: %w", err)
	}

	w.width++
	w.dates = append(w.dates, DateColumn{Date: label, Col: col})
	return col, nil
}

// RecordPrice stores one day's observation for a row, updating both
// the in-memory history and the sheet cell. A failed observation
// leaves the cell untouched so a value from an earlier run on the
// same day survives a later failure.
func (w *Workbook) RecordPrice(row *model.ProductRow, date time.Time, point model.PricePoint) error {
	col, err := w.EnsureDateColumn(date)
	if err != nil {
		return err
	}
	point.Date = dayOf(date)

	replaced := false
	for i, p := range row.History {
		if sameDay(p.Date, point.Date) {
			if p.OK && !point.OK {
				// keep the successful observation
				return nil
			}
			row.History[i] = point
			replaced = true
			break
		}
	}
	if !replaced {
		row.History = append(row.History, point)
	}

	if !point.OK {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row.SheetRow)
	if err != nil {
		return fmt.Errorf("price cell coordinates: %w", err)
	}
	if err := w.file.SetCellValue(w.sheet, cell, point.Price); err != nil {
		return fmt.Errorf("write price cell: %w", err)
	}
	return nil
}

// SetDiscount writes a row's discount cell. A nil value clears the
// cell (no historical average). Non-positive discounts render with a
// green font, positive ones red.
func (w *Workbook) SetDiscount(row *model.ProductRow, pct *float64) error {
	row.Discount = pct

	cell, err := excelize.CoordinatesToCellName(w.cfg.DiscountCol+1, row.SheetRow)
	if err != nil {
		return fmt.Errorf("discount cell coordinates: %w", err)
	}
	if pct == nil {
		if err := w.file.SetCellValue(w.sheet, cell, ""); err != nil {
			return fmt.Errorf("clear discount cell: %w", err)
		}
		return nil
	}

	if err := w.file.SetCellValue(w.sheet, cell, *pct); err != nil {
		return fmt.Errorf("write discount cell: %w", err)
	}

	styleID, err := w.discountStyle(*pct > 0)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.sheet, cell, cell, styleID); err != nil {
		return fmt.Errorf("style discount cell: %w", err)
	}
	return nil
}

func (w *Workbook) discountStyle(up bool) (int, error) {
	if up {
		if w.styleUp == 0 {
			id, err := w.file.NewStyle(&excelize.Style{
				Font:         &excelize.Font{Color: "CC0000"},
				CustomNumFmt: strPtr(`0.0"%"`),
			})
			if err != nil {
				return 0, fmt.Errorf("discount style: %w", err)
			}
			w.styleUp = id
		}
		return w.styleUp, nil
	}
	if w.styleDown == 0 {
		id, err := w.file.NewStyle(&excelize.Style{
			Font:         &excelize.Font{Color: "008000"},
			CustomNumFmt: strPtr(`0.0"%"`),
		})
		if err != nil {
			return 0, fmt.Errorf("discount style: %w", err)
		}
		w.styleDown = id
	}
	return w.styleDown, nil
}

func strPtr(s string) *string { return &s }

// Save persists the workbook with atomic-replace discipline: the file
// is written to a temporary sibling path and then renamed into place,
// so a crash mid-write never leaves a truncated workbook behind.
func (w *Workbook) Save(path string) error {
	tmp := path + ".tmp"
	if err := w.file.SaveAs(tmp); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// IsConfigError reports whether err is a fatal workbook config error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
