package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/clotilde/admin-console/internal/models"
)

// Format represents supported export formats
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

const sheetName = "Logs"

var headers = []string{"id", "timestamp", "model", "category", "response_time_ms", "status", "error_message", "input", "output"}

// ParseFormat validates a format name. An empty name means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON, FormatExcel:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName builds a download name stamped with at
func (f Format) FileName(at time.Time) string {
	return fmt.Sprintf("logs_%s.%s", at.Format("20060102_150405"), f)
}

// Write encodes entries in the given format.
func Write(w io.Writer, format Format, entries []models.LogEntry) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, entries)
	case FormatJSON:
		return writeJSON(w, entries)
	case FormatExcel:
		return writeExcel(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func row(e models.LogEntry) []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339),
		e.Model,
		e.Category,
		strconv.FormatInt(e.ResponseTime, 10),
		e.Status,
		e.ErrorMessage,
		e.Input,
		e.Output,
	}
}

func writeCSV(w io.Writer, entries []models.LogEntry) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(headers); err != nil {
		return err
	}
	for _, e := range entries {
		if err := csvWriter.Write(row(e)); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeJSON(w io.Writer, entries []models.LogEntry) error {
	if entries == nil {
		entries = []models.LogEntry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(map[string]interface{}{
		"entries":  entries,
		"count":    len(entries),
		"exported": time.Now().UTC(),
	})
}

func writeExcel(w io.Writer, entries []models.LogEntry) error {
	file := excelize.NewFile()
	defer file.Close()

	// Rename the default sheet rather than adding a second one
	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 2},
		},
	})
	if err != nil {
		return err
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := file.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := file.SetColWidth(sheetName, "A", lastCol, 20); err != nil {
		return err
	}

	for i, e := range entries {
		for col, value := range row(e) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	if len(entries) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(entries)+1)
		if err := file.AutoFilter(sheetName, ref, nil); err != nil {
			return err
		}
	}

	return file.Write(w)
}
