// Package export renders form responses and instance rosters as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mbolis/quick-forms/model"
	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// WriteXLSX writes one row per response and one column per field of sk,
// preceded by a header row. Answers to fields no longer in the form are
// dropped.
func WriteXLSX(w io.Writer, sk model.Skeleton, responses []model.Response) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"id", "time"}
	column := make(map[int64]int, len(sk.Fields))
	for i, field := range sk.Fields {
		header = append(header, field.Title)
		column[field.ID] = i + 2
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range responses {
		row := make([]any, len(header))
		row[0] = r.ID
		row[1] = r.Time
		for _, a := range r.Answers {
			if c, ok := column[a.FieldID]; ok {
				row[c] = cellValue(a.Value)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func cellValue(v any) any {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case model.FileRef:
		return x.Name
	case map[string]any:
		// file answers read back from the store
		if name, ok := x["name"].(string); ok {
			return name
		}
		return fmt.Sprint(x)
	}
	return v
}
