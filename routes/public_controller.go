package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

func LiveListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		skeletons, err := app.Store.Skeletons(r.Context(), inst.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"name":        inst.Name,
			"description": inst.Description,
			"status":      inst.Status,
			"forms":       skeletons,
		})
	}
}

func LiveStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, map[string]any{"status": inst.Status})
	}
}

func LiveSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadOpenInstance(app, w, r)
		if !ok {
			return
		}
		sk, ok := loadFormOf(app, w, r, inst)
		if !ok {
			return
		}

		var submission struct {
			Answers []model.Answer `json:"answers"`
		}
		err := render.DecodeJSON(r.Body, &submission)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		resp, err := app.Responses.Submit(r.Context(), sk.ID, submission.Answers)
		if err != nil {
			fail(w, r, "submit_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":         resp.ID,
			"endMessage": sk.EndMessage,
		})
	}
}

func LiveUpload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := loadOpenInstance(app, w, r); !ok {
			return
		}
		if app.Uploads == nil {
			httpx.LogStatus(w, http.StatusNotImplemented, log.WarnLevel, "upload.disabled")
			return
		}

		// leave room for the multipart envelope around the file
		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize+1<<20)
		file, header, err := r.FormFile("file")
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httpx.LogStatus(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "upload.too_large")
			return
		case err != nil:
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_file")
			return
		}
		defer file.Close()

		if header.Size > app.MaxUploadSize {
			httpx.LogStatusMsg(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "upload.too_large",
				"file is larger than %d bytes", app.MaxUploadSize)
			return
		}

		artifact, err := app.Uploads.Put(r.Context(), header.Filename, header.Header.Get("content-type"), file, header.Size)
		if err != nil {
			httpx.LogInternalError(w, "upload.put", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, artifact)
	}
}
