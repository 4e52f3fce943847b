package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/mbolis/quick-forms/model"
	"github.com/xuri/excelize/v2"
)

var participantHeader = []string{"username", "first_name", "last_name", "source", "created"}

func participantRow(p model.Participant) []string {
	return []string{p.Username, p.FirstName, p.LastName, p.Source, p.Created.Format(time.RFC3339)}
}

// WriteParticipantsCSV writes the roster with a header row. Passwords are
// never part of it.
func WriteParticipantsCSV(w io.Writer, participants []model.Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(participantHeader); err != nil {
		return err
	}
	for _, p := range participants {
		if err := cw.Write(participantRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteParticipantsXLSX(w io.Writer, participants []model.Participant) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]string{participantHeader}
	for _, p := range participants {
		rows = append(rows, participantRow(p))
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
