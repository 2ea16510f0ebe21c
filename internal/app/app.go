package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/kingstack/kingtiles-server/internal/config"
	"github.com/kingstack/kingtiles-server/internal/database"
	"github.com/kingstack/kingtiles-server/internal/ledger"
	"github.com/kingstack/kingtiles-server/internal/middleware"
	"github.com/kingstack/kingtiles-server/internal/relayer"
	"github.com/kingstack/kingtiles-server/internal/repository"
	"github.com/kingstack/kingtiles-server/internal/session"
)

type App struct {
	logger     *slog.Logger
	router     *mux.Router
	db         *pgxpool.Pool
	cookies    *config.Cookies
	jwt        *config.JWT
	ws         *config.WebSocket
	game       *config.Game
	sessions   *session.Registry
	ledger     ledger.Ledger
	migrations fs.FS
}

func New(logger *slog.Logger, migrations fs.FS) *App {
	return &App{
		logger:     logger,
		router:     mux.NewRouter(),
		migrations: migrations,
	}
}

// Start connects, migrates, wires the routes and serves until ctx is
// canceled. The relayer shares the process and the session registry, so
// periodic board operations and player requests contend on the same
// per-session locks.
func (a *App) Start(ctx context.Context) error {
	db, err := database.ConnectAndMigrate(ctx, a.migrations)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	a.db = db
	defer db.Close()

	jwt, err := config.NewJWT()
	if err != nil {
		return err
	}
	a.jwt = jwt

	cookies, err := config.NewCookies(jwt)
	if err != nil {
		return err
	}
	a.cookies = cookies

	ws, err := config.NewWebSocket()
	if err != nil {
		return err
	}
	a.ws = ws

	game, err := config.NewGame()
	if err != nil {
		return err
	}
	a.game = game

	cadence, err := config.NewRelayer()
	if err != nil {
		return err
	}

	repo := repository.New(db)
	a.sessions = session.NewRegistry(repo)
	a.ledger = ledger.NewPostgres(repo)

	a.loadRoutes()

	port := config.Port()
	server := &http.Server{
		Addr:         port,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler: middleware.Wrap(
			a.router,
			middleware.Cors(),
			middleware.Logging(a.logger),
			middleware.Auth(a.cookies),
		),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rel := relayer.New(a.logger, a.sessions, cadence)
		err := rel.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	a.logger.Info("server listening", slog.String("addr", port))
	return g.Wait()
}
