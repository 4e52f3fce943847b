package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/oauth"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

type instanceInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`

	Status *model.InstanceStatus `json:"status"`
}

func CreateInstance(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := instanceInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "name must not be empty")
			return
		}

		inst := model.Instance{Name: *in.Name}
		if in.Description != nil {
			inst.Description = *in.Description
		}
		if credential, ok := r.Context().Value(oauth.CredentialContext).(string); ok {
			inst.Owner = credential
		}

		err = app.Store.CreateInstance(r.Context(), &inst)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_instance", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, inst)
	}
}

func ListInstances(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instances, err := app.Store.Instances(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_instances", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"instances": instances,
		})
	}
}

func GetInstance(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, inst)
	}
}

func UpdateInstance(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		in := instanceInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "name must not be empty")
				return
			}
			inst.Name = *in.Name
		}
		if in.Description != nil {
			inst.Description = *in.Description
		}
		if in.Status != nil {
			if *in.Status != model.Open && *in.Status != model.Closed {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate",
					"status must be %q or %q", model.Open, model.Closed)
				return
			}
			inst.Status = *in.Status
		}

		err = app.Store.UpdateInstance(r.Context(), inst)
		if err != nil {
			fail(w, r, "db.update_instance", err)
			return
		}

		render.JSON(w, r, inst)
	}
}

func DeleteInstance(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		err := app.Store.DeleteInstance(r.Context(), inst.Hash)
		if err != nil {
			fail(w, r, "db.delete_instance", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
