package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects an export rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// csvHeader is the column contract for tabular exports. Changing it breaks
// downstream report tooling.
const csvHeader = "id,timestamp,sessionId,commandId,commandType,description,action,affectedEntities,success,error"

// Export renders the full trail in the given format.
func (t *Trail) Export(format Format) ([]byte, error) {
	entries := t.Entries(Filter{})
	switch format {
	case FormatJSON:
		return exportJSON(entries)
	case FormatCSV:
		return exportCSV(entries), nil
	case FormatXLSX:
		return exportXLSX(entries)
	default:
		return nil, fmt.Errorf("unknown audit export format %q", format)
	}
}

func exportJSON(entries []Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

func exportCSV(entries []Entry) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, e := range entries {
		fields := []string{
			e.ID,
			isoTimestamp(e.Timestamp),
			e.SessionID,
			e.CommandID,
			e.Kind,
			csvQuote(e.Description),
			string(e.Action),
			csvQuote(strings.Join(e.AffectedEntityIDs, ";")),
			fmt.Sprintf("%t", e.Success),
			csvQuote(e.Error),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// csvQuote wraps free-text fields in double quotes, doubling any embedded
// quote. Applied unconditionally so the column shape is stable.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isoTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
