package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/form"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := loadInstance(app, w, r)
		if !ok {
			return
		}

		in := form.SkeletonInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sk, err := app.Forms.Create(r.Context(), inst.ID, in)
		if err != nil {
			fail(w, r, "create_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sk)
	}
}

func ListForms(app app.App) http.HandlerFunc {
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
			"forms": skeletons,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, sk)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		patch := form.SkeletonPatch{}
		err := render.DecodeJSON(r.Body, &patch)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sk, err = app.Forms.Update(r.Context(), sk.ID, patch)
		if err != nil {
			fail(w, r, "update_form", err)
			return
		}

		render.JSON(w, r, sk)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		err := app.Forms.Delete(r.Context(), sk.ID)
		if err != nil {
			fail(w, r, "delete_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ReplaceFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		defs := []form.Definition{}
		err := render.DecodeJSON(r.Body, &defs)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sk, err = app.Forms.ReplaceFields(r.Context(), sk.ID, defs)
		if err != nil {
			fail(w, r, "replace_fields", err)
			return
		}

		render.JSON(w, r, sk)
	}
}

func AddField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		def := form.Definition{}
		err := render.DecodeJSON(r.Body, &def)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		f, err := app.Forms.AddField(r.Context(), sk.ID, def)
		if err != nil {
			fail(w, r, "add_field", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, f)
	}
}

func ListFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, map[string]any{
			"fields": sk.Fields,
		})
	}
}

// loadField resolves {fieldId} among the fields of the form.
func loadField(app app.App, w http.ResponseWriter, r *http.Request) (model.Skeleton, model.Field, bool) {
	sk, ok := loadForm(app, w, r)
	if !ok {
		return sk, model.Field{}, false
	}
	fieldID, ok := idParam(w, r, "fieldId")
	if !ok {
		return sk, model.Field{}, false
	}

	for _, f := range sk.Fields {
		if f.ID == fieldID {
			return sk, f, true
		}
	}
	httpx.RenderValidation(w, r, "get_field", &form.ValidationError{
		Kind:    form.ErrFieldNotFound,
		Index:   -1,
		FieldID: fieldID,
		Rule:    "field does not belong to this form",
	})
	return sk, model.Field{}, false
}

func GetField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, f, ok := loadField(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, f)
	}
}

// UpdateField applies the submitted keys over the current definition, so a
// PATCH with only a title keeps type, options and the rest.
func UpdateField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, f, ok := loadField(app, w, r)
		if !ok {
			return
		}

		def := form.DefinitionOf(f)
		err := render.DecodeJSON(r.Body, &def)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		f, err = app.Forms.UpdateField(r.Context(), sk.ID, f.ID, def)
		if err != nil {
			fail(w, r, "update_field", err)
			return
		}

		render.JSON(w, r, f)
	}
}

func DeleteField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}
		fieldID, ok := idParam(w, r, "fieldId")
		if !ok {
			return
		}

		err := app.Forms.DeleteField(r.Context(), sk.ID, fieldID)
		if err != nil {
			fail(w, r, "delete_field", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func MoveField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}
		fieldID, ok := idParam(w, r, "fieldId")
		if !ok {
			return
		}

		var body struct {
			Position *int `json:"position"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil || body.Position == nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sk, err = app.Forms.ReorderField(r.Context(), sk.ID, fieldID, *body.Position)
		if err != nil {
			fail(w, r, "move_field", err)
			return
		}

		render.JSON(w, r, sk)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		responses, err := app.Store.Responses(r.Context(), sk.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sk, ok := loadForm(app, w, r)
		if !ok {
			return
		}

		responses, err := app.Store.Responses(r.Context(), sk.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		w.Header().Set("content-type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("content-disposition", fmt.Sprintf(`attachment; filename="form-%d-responses.xlsx"`, sk.ID))
		err = export.WriteXLSX(w, sk, responses)
		if err != nil {
			// headers are gone already, only log
			log.Errorf("export_responses: %s", err)
		}
	}
}
