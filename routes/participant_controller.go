package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/roster"
)

type rosterParser func(io.Reader, roster.Columns) ([]roster.Entry, error)

// ImportParticipants reads a multipart roster: the list in "file", and the
// names of its columns in the first_name, last_name, username and password
// values.
func ImportParticipants(app app.App, source string, parse rosterParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize+1<<20)
		file, _, err := r.FormFile("file")
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httpx.LogStatus(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "participants.too_large")
			return
		case err != nil:
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_file")
			return
		}
		defer file.Close()

		entries, err := parse(file, roster.Columns{
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
			Username:  r.FormValue("username"),
			Password:  r.FormValue("password"),
		})
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "participants.parse", "%s", err)
			return
		}

		err = app.Store.SaveParticipants(r.Context(), inst.ID, source, entries)
		if err != nil {
			httpx.LogInternalError(w, "db.save_participants", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Users added successfully",
			"count":   len(entries),
		})
	}
}

func ListParticipants(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		participants, err := app.Store.Participants(r.Context(), inst.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_participants", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"participants": participants,
		})
	}
}

func GetParticipant(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		p, err := app.Store.Participant(r.Context(), inst.ID, chi.URLParam(r, "username"))
		if err != nil {
			fail(w, r, "db.get_participant", err)
			return
		}
		render.JSON(w, r, p)
	}
}

var rosterWriters = map[string]struct {
	contentType string
	write       func(io.Writer, []model.Participant) error
}{
	"csv":  {"text/csv", export.WriteParticipantsCSV},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteParticipantsXLSX},
}

// DownloadParticipants serves the roster as ?format=csv (the default), xlsx
// or json.
func DownloadParticipants(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		writer, ok := rosterWriters[format]
		if !ok && format != "json" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"unknown format %q", format)
			return
		}

		participants, err := app.Store.Participants(r.Context(), inst.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_participants", err)
			return
		}

		w.Header().Set("content-disposition", fmt.Sprintf(`attachment; filename="%s-participants.%s"`, inst.Hash, format))
		if format == "json" {
			render.JSON(w, r, participants)
			return
		}

		w.Header().Set("content-type", writer.contentType)
		err = writer.write(w, participants)
		if err != nil {
			// headers are gone already, only log
			log.Errorf("download_participants: %s", err)
		}
	}
}
