package config

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

// NewWebSocket builds the command-channel upgrader. WS_ALLOWED_ORIGINS
// is a comma-separated list of origins allowed to open a connection;
// when unset, any origin is accepted. Auth still rides in cookies, so
// deployments serving a browser client should pin their origin here.
func NewWebSocket() (*WebSocket, error) {
	allowed := make(map[string]bool)
	if v, ok := os.LookupEnv("WS_ALLOWED_ORIGINS"); ok {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed[origin] = true
			}
		}
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return allowed[r.Header.Get("Origin")]
		},
	}

	return &WebSocket{Upgrader: upgrader}, nil
}
