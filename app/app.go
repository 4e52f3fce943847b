package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/form"
	"github.com/mbolis/quick-forms/upload"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Store     *database.Store
	Forms     *form.Skeletons
	Responses *form.Responses
	Uploads   upload.Store
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config, uploads upload.Store) App {
	store := database.NewStore(db)
	answers := form.NewAnswerValidator(form.Limits{MaxTextLength: cfg.MaxTextLength}, uploads)

	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Store:        store,
		Forms:        form.NewSkeletons(store),
		Responses:    form.NewResponses(store, answers),
		Uploads:      uploads,
	}
}
