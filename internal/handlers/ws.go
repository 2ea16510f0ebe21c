package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingstack/kingtiles-server/internal/tiles"
)

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"m": 2,
	"p": 2,
}

func parseCommandArgs(twoStrings []string) (dir tiles.Direction, playerID uint8, err error) {
	if dir, err = tiles.ParseDirection(twoStrings[0]); err != nil {
		return
	}
	id, err := strconv.ParseUint(twoStrings[1], 10, 8)
	if err != nil {
		err = errors.New("second argument must be a player id")
		return
	}
	playerID = uint8(id)
	return
}

func executeCommand(g *tiles.Game, identity, c string) ([]tiles.Event, error) {
	parts := strings.Split(c, " ")
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return nil, errors.New("unknown command")
	}
	if nargs != len(parts)-1 {
		return nil, errors.New("invalid number of arguments")
	}
	switch parts[0] {
	case "g":
		return nil, nil
	case "m":
		dir, playerID, err := parseCommandArgs(parts[1:])
		if err != nil {
			return nil, err
		}
		res, err := g.Move(playerID, identity, dir, time.Now())
		if err != nil {
			return nil, err
		}
		return res.Events, nil
	case "p":
		dir, playerID, err := parseCommandArgs(parts[1:])
		if err != nil {
			return nil, err
		}
		if err := g.VerifyIdentity(playerID, identity); err != nil {
			return nil, err
		}
		res, err := g.UsePower(playerID, dir)
		if err != nil {
			return nil, err
		}
		return res.Events, nil
	}
	return nil, errors.New("invalid command")
}

// ConnectWs upgrades the request to a websocket command channel bound
// to one session. Each text message may carry newline-separated
// commands; the reply is either the refreshed session snapshot or an
// error payload.
func (h GameHandler) ConnectWs(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("unable to upgrade connection", "error", err)
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				h.logger.Warn("unable to read message", "error", err)
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}
		text := strings.TrimSpace(string(message))
		h.logger.Debug("ws command", "text", text)

		var events []tiles.Event
		err = s.Do(r.Context(), func(g *tiles.Game) error {
			for _, cmd := range strings.Split(text, "\n") {
				evs, err := executeCommand(g, claims.Username, cmd)
				if err != nil {
					return err
				}
				events = append(events, evs...)
			}
			return nil
		})
		if err != nil {
			if writeErr := c.WriteJSON(wrapError(err)); writeErr != nil {
				h.logger.Error("unable to write message", "error", writeErr)
				break
			}
			continue
		}

		var dto *GameSessionDTO
		s.View(func(g *tiles.Game) {
			dto = NewGameSessionDTO(s, g, events)
		})
		if err := c.WriteJSON(dto); err != nil {
			h.logger.Error("unable to write message", "error", err)
			break
		}
	}
}
