package audit

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// exportXLSX renders the trail as a single-sheet workbook with the same
// columns as the CSV export. Free-text fields need no quoting here; cell
// values carry them verbatim.
func exportXLSX(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Audit"
	f.SetSheetName("Sheet1", sheet)

	header := strings.Split(csvHeader, ",")
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		row := []any{
			e.ID,
			isoTimestamp(e.Timestamp),
			e.SessionID,
			e.CommandID,
			e.Kind,
			e.Description,
			string(e.Action),
			strings.Join(e.AffectedEntityIDs, ";"),
			e.Success,
			e.Error,
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write audit cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render audit workbook: %w", err)
	}
	return buf.Bytes(), nil
}
