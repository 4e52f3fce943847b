package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/roster"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/live/{hash}", func(r chi.Router) {
		liveRoutes(r, app)
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))
		adminRoutes(r, app)
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func liveRoutes(r chi.Router, app app.App) {
	r.Get("/status", LiveStatus(app))
	r.Get("/forms", LiveListForms(app))
	r.Post(`/forms/{id:^\d+$}/responses`, LiveSubmitResponse(app))
	r.Post("/uploads", LiveUpload(app))
}

func adminRoutes(r chi.Router, app app.App) {
	// CRUD instance
	r.Post("/instances", CreateInstance(app))
	r.Get("/instances", ListInstances(app))
	r.Get("/instances/{hash}", GetInstance(app))
	r.Patch("/instances/{hash}", UpdateInstance(app))
	r.Delete("/instances/{hash}", DeleteInstance(app))

	r.Route("/instances/{hash}/participants", func(r chi.Router) {
		r.Get("/", ListParticipants(app))
		r.Get("/download", DownloadParticipants(app))
		r.Get("/{username}", GetParticipant(app))
		r.Post("/csv", ImportParticipants(app, "csv", roster.ParseCSV))
		r.Post("/json", ImportParticipants(app, "json", roster.ParseJSON))
	})

	r.Route("/instances/{hash}/forms", func(r chi.Router) {
		// CRUD form
		r.Post("/", CreateForm(app))
		r.Get("/", ListForms(app))
		r.Get(`/{id:^\d+$}`, GetForm(app))
		r.Patch(`/{id:^\d+$}`, UpdateForm(app))
		r.Delete(`/{id:^\d+$}`, DeleteForm(app))

		// fields
		r.Put(`/{id:^\d+$}/fields`, ReplaceFields(app))
		r.Post(`/{id:^\d+$}/fields`, AddField(app))
		r.Get(`/{id:^\d+$}/fields`, ListFields(app))
		r.Get(`/{id:^\d+$}/fields/{fieldId:^\d+$}`, GetField(app))
		r.Patch(`/{id:^\d+$}/fields/{fieldId:^\d+$}`, UpdateField(app))
		r.Delete(`/{id:^\d+$}/fields/{fieldId:^\d+$}`, DeleteField(app))
		r.Post(`/{id:^\d+$}/fields/{fieldId:^\d+$}/position`, MoveField(app))

		r.Get(`/{id:^\d+$}/responses`, ListResponses(app))
		r.Get(`/{id:^\d+$}/responses.xlsx`, ExportResponses(app))
	})
}
