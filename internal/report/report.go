package report

import (
    "encoding/csv"
    "fmt"
    "io"
    "strconv"

    "github.com/xuri/excelize/v2"

    "tickerquote/internal/orchestrator"
)

var header = []string{"text", "ticker", "name", "tier", "price", "source"}

func row(r orchestrator.Record) []string {
    tier := ""
    if r.Tier > 0 {
        tier = strconv.Itoa(r.Tier)
    }
    return []string{r.Text, r.Ticker, r.Name, tier, r.Price, r.Source}
}

// WriteCSV writes one row per record. Unresolved and unpriced fields stay
// empty so downstream consumers can tell "not found" from "found but
// unpriced".
func WriteCSV(w io.Writer, records []orchestrator.Record) error {
    cw := csv.NewWriter(w)
    if err := cw.Write(header); err != nil {
        return fmt.Errorf("report: write header: %w", err)
    }
    for _, r := range records {
        if err := cw.Write(row(r)); err != nil {
            return fmt.Errorf("report: write row: %w", err)
        }
    }
    cw.Flush()
    return cw.Error()
}

// WriteXLSX writes the records as a single-sheet workbook.
func WriteXLSX(path string, records []orchestrator.Record) error {
    f := excelize.NewFile()
    defer f.Close()

    const sheet = "Sheet1"
    for col, name := range header {
        cell, err := excelize.CoordinatesToCellName(col+1, 1)
        if err != nil {
            return fmt.Errorf("report: cell name: %w", err)
        }
        if err := f.SetCellValue(sheet, cell, name); err != nil {
            return fmt.Errorf("report: set header: %w", err)
        }
    }
    for i, r := range records {
        for col, v := range row(r) {
            cell, err := excelize.CoordinatesToCellName(col+1, i+2)
            if err != nil {
                return fmt.Errorf("report: cell name: %w", err)
            }
            if err := f.SetCellValue(sheet, cell, v); err != nil {
                return fmt.Errorf("report: set cell: %w", err)
            }
        }
    }
    if err := f.SaveAs(path); err != nil {
        return fmt.Errorf("report: save %s: %w", path, err)
    }
    return nil
}
