package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/phenrril/customerdesk/internal/adapters/customerapi"
	"github.com/phenrril/customerdesk/internal/adapters/export"
	"github.com/phenrril/customerdesk/internal/adapters/session"
	"github.com/phenrril/customerdesk/internal/domain"
	"github.com/phenrril/customerdesk/internal/usecase"
)

type App struct {
	Config   Config
	Session  *session.File
	Repo     domain.CustomerRepo
	Store    *usecase.Store
	Searcher *usecase.Searcher
}

// NewApp arma el grafo completo. clk puede ser nil (reloj real).
func NewApp(ctx context.Context, cfg Config, clk clock.Clock) (*App, error) {
	var opts []session.Option
	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret != "" && cfg.OAuthTokenURL != "" {
		opts = append(opts, session.WithClientCredentials(&clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			TokenURL:     cfg.OAuthTokenURL,
		}))
	}
	sess, err := session.Open(cfg.SessionFile, opts...)
	if err != nil {
		return nil, err
	}

	strategy, err := usecase.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	repo := customerapi.New(cfg.APIURL, cfg.HTTPTimeout, customerapi.WithTokenSource(sess.TokenSource(ctx)))
	store := usecase.NewStore(repo, sess, usecase.Options{
		Strategy:       strategy,
		KeepSuperseded: cfg.KeepSuperseded,
	})

	a := &App{
		Config:   cfg,
		Session:  sess,
		Repo:     repo,
		Store:    store,
		Searcher: usecase.NewSearcher(ctx, store, clk, cfg.SearchDelay),
	}
	log.Debug().Str("api", cfg.APIURL).Str("session", cfg.SessionFile).Msg("app lista")
	return a, nil
}

// RequireSession es la guarda de las operaciones protegidas.
func (a *App) RequireSession() error {
	if a.Session == nil || !a.Session.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

// Login guarda la sesión; si ya había una, no hace nada y devuelve false.
func (a *App) Login(token string, u session.User) (bool, error) {
	if a.Session.IsAuthenticated() {
		return false, nil
	}
	if err := a.Session.Login(token, u); err != nil {
		return false, err
	}
	log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("sesión iniciada")
	return true, nil
}

func Exporter(format string) (domain.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return export.CSV, nil
	case "xlsx":
		return export.XLSX, nil
	}
	return nil, fmt.Errorf("formato desconocido %q (csv|xlsx)", format)
}

// Export genera el archivo con la lista actual y lo guarda en ExportDir.
func (a *App) Export(format string, now time.Time) (string, int, error) {
	exp, err := Exporter(format)
	if err != nil {
		return "", 0, err
	}
	art, err := a.Store.Export(exp, now)
	if err != nil {
		return "", 0, err
	}
	path, err := export.Save(a.Config.ExportDir, art)
	if err != nil {
		return "", 0, err
	}
	return path, len(art.Data), nil
}

func (a *App) Close() {
	a.Searcher.Stop()
}
