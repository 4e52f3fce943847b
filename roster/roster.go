// Package roster reads the participant lists admins upload for an instance.
// Both formats name their columns freely: Columns maps them to the roster
// attributes.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid roster")

// Columns holds the source column names of each attribute. Username and
// Password are mandatory, the names may be left out.
type Columns struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

func (c Columns) validate() error {
	if c.Username == "" {
		return errors.Wrap(ErrInvalid, "the username column is not named")
	}
	if c.Password == "" {
		return errors.Wrap(ErrInvalid, "the password column is not named")
	}
	return nil
}

type Entry struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// ParseCSV reads a header row followed by one participant per row.
func ParseCSV(r io.Reader, cols Columns) ([]Entry, error) {
	if err := cols.validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrInvalid, "the file is empty")
	}
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "header: %s", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	column := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		i, ok := index[name]
		if !ok {
			return 0, errors.Wrapf(ErrInvalid, "column %q is missing", name)
		}
		return i, nil
	}
	var at [4]int
	for i, name := range []string{cols.Username, cols.FirstName, cols.LastName, cols.Password} {
		if at[i], err = column(name); err != nil {
			return nil, err
		}
	}

	get := func(record []string, i int) string {
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	entries := []Entry{}
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "row %d: %s", row, err)
		}
		entries = append(entries, Entry{
			Username:  get(record, at[0]),
			FirstName: get(record, at[1]),
			LastName:  get(record, at[2]),
			Password:  get(record, at[3]),
		})
	}
	return entries, check(entries, 2)
}

// ParseJSON reads an array of objects, one participant each.
func ParseJSON(r io.Reader, cols Columns) ([]Entry, error) {
	if err := cols.validate(); err != nil {
		return nil, err
	}

	var objects []map[string]any
	if err := render.DecodeJSON(r, &objects); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "not a JSON array of objects: %s", err)
	}

	entries := make([]Entry, len(objects))
	for i, o := range objects {
		var err error
		text := func(name string) string {
			if name == "" || err != nil {
				return ""
			}
			switch v := o[name].(type) {
			case nil:
				return ""
			case string:
				return strings.TrimSpace(v)
			case float64, bool:
				return fmt.Sprint(v)
			default:
				err = errors.Wrapf(ErrInvalid, "row %d: %q is not a scalar", i+1, name)
				return ""
			}
		}
		entries[i] = Entry{
			Username:  text(cols.Username),
			FirstName: text(cols.FirstName),
			LastName:  text(cols.LastName),
			Password:  text(cols.Password),
		}
		if err != nil {
			return nil, err
		}
	}
	return entries, check(entries, 1)
}

// check rejects empty credentials and usernames repeated in the same file.
// first is the row number of entries[0].
func check(entries []Entry, first int) error {
	if len(entries) == 0 {
		return errors.Wrap(ErrInvalid, "no participants")
	}
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		row := first + i
		switch {
		case e.Username == "":
			return errors.Wrapf(ErrInvalid, "row %d: username is empty", row)
		case e.Password == "":
			return errors.Wrapf(ErrInvalid, "row %d: password is empty", row)
		}
		if prev, ok := seen[e.Username]; ok {
			return errors.Wrapf(ErrInvalid, "row %d: username %q already on row %d", row, e.Username, prev)
		}
		seen[e.Username] = row
	}
	return nil
}
