package app

import (
	"net/http"

	"github.com/kingstack/kingtiles-server/internal/handlers"
)

func (a *App) loadRoutes() {
	auth := handlers.NewAuth(a.logger, a.db, a.cookies, a.jwt, a.game)
	game := handlers.NewGameHandler(
		a.logger, a.db, a.sessions, a.ledger, a.game, a.ws,
	)

	a.router.HandleFunc("/register", auth.Register).Methods("POST")
	a.router.HandleFunc("/login", auth.Login).Methods("POST")
	a.router.HandleFunc("/logout", auth.Logout).Methods("POST")
	a.router.HandleFunc("/status", auth.Status).Methods("GET")

	a.router.HandleFunc("/game", game.CreateSession).Methods("POST")
	a.router.HandleFunc("/game", game.ListActive).Methods("GET")
	a.router.HandleFunc("/game/{id}", game.Fetch).Methods("GET")
	a.router.HandleFunc("/game/{id}/join", game.Join).Methods("POST")
	a.router.HandleFunc("/game/{id}/move", game.Move).Methods("POST")
	a.router.HandleFunc("/game/{id}/power", game.Power).Methods("POST")
	a.router.HandleFunc("/game/{id}/spawn", game.Spawn).Methods("POST")
	a.router.HandleFunc("/game/{id}/tick", game.Tick).Methods("POST")
	a.router.HandleFunc("/game/{id}/king", game.SetKing).Methods("POST")
	a.router.HandleFunc("/game/{id}/finalize", game.Finalize).Methods("POST")
	a.router.HandleFunc("/game/{id}/standings", game.Standings).Methods("GET")
	a.router.HandleFunc("/game/{id}/ledger", game.Ledger).Methods("GET")
	a.router.HandleFunc("/game/{id}/connect", game.ConnectWs)

	a.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
