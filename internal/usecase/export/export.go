package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Riesling1623/honeydash/internal/entity"
)

// SheetName is the name of the single worksheet in an export
const SheetName = "SSH Honeypot Data"

// Headers are the fixed column titles, in order
var Headers = []string{
	"Session ID",
	"IP Address",
	"Username",
	"Password",
	"Login Status",
	"Commands Count",
	"Dangerous Commands Count",
	"Downloads Count",
	"Timestamp",
}

// FileName names the export of a date range
func FileName(startDate, endDate string) string {
	return fmt.Sprintf("ssh_honeypot_%s_to_%s.xlsx", startDate, endDate)
}

// Row returns the spreadsheet cells of one session
func Row(s entity.Session) []interface{} {
	return []interface{}{
		s.SessionID,
		s.IPAddress,
		s.Username,
		s.Password,
		string(s.LoginStatus),
		len(s.Commands),
		len(s.DangerousCommands),
		len(s.Downloads),
		s.Timestamp,
	}
}

// WriteSessions writes every session as one row of an XLSX workbook
func WriteSessions(w io.Writer, sessions []entity.Session) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, s := range sessions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := Row(s)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", lastCol, 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the export for a date range into dir and returns its path
func WriteFile(dir, startDate, endDate string, sessions []entity.Session) (string, error) {
	path := filepath.Join(dir, FileName(startDate, endDate))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := WriteSessions(out, sessions); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
