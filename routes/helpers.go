package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

// fail maps a service error to a response: validation errors are rendered,
// missing rows are 404s, anything else is logged as an internal error.
func fail(w http.ResponseWriter, r *http.Request, code string, err error) {
	switch {
	case httpx.RenderValidation(w, r, code, err):
	case errors.Is(err, database.ErrNotFound):
		httpx.LogNotFound(w, code, r.URL.Path)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+name)
		return 0, false
	}
	return id, true
}

func loadInstance(app app.App, w http.ResponseWriter, r *http.Request) (model.Instance, bool) {
	hash := chi.URLParam(r, "hash")
	inst, err := app.Store.Instance(r.Context(), hash)
	if errors.Is(err, database.ErrNotFound) {
		httpx.LogNotFound(w, "get_instance", hash)
		return inst, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_instance", err)
		return inst, false
	}
	return inst, true
}

// loadForm resolves {hash} and {id}, checking that the form belongs to the
// instance.
func loadForm(app app.App, w http.ResponseWriter, r *http.Request) (model.Skeleton, bool) {
	inst, ok := loadInstance(app, w, r)
	if !ok {
		return model.Skeleton{}, false
	}
	return loadFormOf(app, w, r, inst)
}

func loadFormOf(app app.App, w http.ResponseWriter, r *http.Request, inst model.Instance) (model.Skeleton, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return model.Skeleton{}, false
	}

	sk, err := app.Forms.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || err == nil && sk.InstanceID != inst.ID {
		httpx.LogNotFound(w, "get_form", id)
		return model.Skeleton{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_form", err)
		return model.Skeleton{}, false
	}
	return sk, true
}

// loadOpenInstance is loadInstance for the live routes that write: a closed
// instance takes no more responses or uploads.
func loadOpenInstance(app app.App, w http.ResponseWriter, r *http.Request) (model.Instance, bool) {
	inst, ok := loadInstance(app, w, r)
	if ok && inst.Status == model.Closed {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "live.closed", "instance %s is closed", inst.Hash)
		return inst, false
	}
	return inst, ok
}
