package handlers

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kingstack/kingtiles-server/internal/config"
	"github.com/kingstack/kingtiles-server/internal/ledger"
	"github.com/kingstack/kingtiles-server/internal/middleware"
	"github.com/kingstack/kingtiles-server/internal/repository"
	"github.com/kingstack/kingtiles-server/internal/session"
	"github.com/kingstack/kingtiles-server/internal/tiles"
)

type GameHandler struct {
	logger   *slog.Logger
	repo     *repository.Queries
	sessions *session.Registry
	ledger   ledger.Ledger
	game     *config.Game
	ws       *config.WebSocket
}

func NewGameHandler(
	logger *slog.Logger,
	db *pgxpool.Pool,
	sessions *session.Registry,
	ldg ledger.Ledger,
	game *config.Game,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		logger:   logger,
		repo:     repository.New(db),
		sessions: sessions,
		ledger:   ldg,
		game:     game,
		ws:       ws,
	}
}

// randomByte draws a spawn candidate. Handlers serve concurrently, so
// randomness comes from the top-level rand functions, which are safe
// for concurrent use; a shared *rand.Rand is not.
func randomByte() uint8 {
	return uint8(rand.IntN(256))
}

// statusFor maps the core's named rejections onto HTTP statuses. Every
// rejection travels to the client unchanged; nothing is retried here.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tiles.ErrConfigInvalid),
		errors.Is(err, tiles.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, tiles.ErrIdentityMismatch):
		return http.StatusForbidden
	case errors.Is(err, tiles.ErrCapacityExceeded),
		errors.Is(err, tiles.ErrSessionActive),
		errors.Is(err, tiles.ErrSessionNotActive),
		errors.Is(err, tiles.ErrSessionNotFull),
		errors.Is(err, tiles.ErrSessionExpired),
		errors.Is(err, tiles.ErrSessionNotOver),
		errors.Is(err, tiles.ErrNoCharge),
		errors.Is(err, tiles.ErrCellNotEmpty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h GameHandler) rejectCore(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		w.WriteHeader(status)
		h.logger.Error("game operation failed", "error", err)
		return
	}
	w.WriteHeader(status)
	sendJSONOrLog(w, h.logger, wrapError(err))
}

func (h GameHandler) claims(w http.ResponseWriter, r *http.Request) (*config.PlayerClaims, bool) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
	}
	return claims, ok
}

func (h GameHandler) adminClaims(w http.ResponseWriter, r *http.Request) (*config.PlayerClaims, bool) {
	claims, ok := h.claims(w, r)
	if !ok {
		return nil, false
	}
	if !claims.Admin {
		w.WriteHeader(http.StatusForbidden)
		return nil, false
	}
	return claims, true
}

func (h GameHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	publicID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	s, err := h.sessions.Get(r.Context(), publicID)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.logger.Error("unable to load session", "error", err)
		return nil, false
	}
	return s, true
}

func (h GameHandler) sendSession(w http.ResponseWriter, s *session.Session, events []tiles.Event) {
	var dto *GameSessionDTO
	s.View(func(g *tiles.Game) {
		dto = NewGameSessionDTO(s, g, events)
	})
	sendJSONOrLog(w, h.logger, dto)
}

// CreateSession starts a new game session with the operator-configured
// economics. Admin only.
func (h GameHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminClaims(w, r); !ok {
		return
	}
	dto, err := ParseCreateSessionDTO(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	s, err := h.sessions.Create(r.Context(), tiles.Config{
		SideLen:    dto.SideLen,
		MaxPlayers: dto.MaxPlayers,
		FeeRate:    h.game.FeeRate,
		RewardRate: h.game.RewardRate,
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.logger.Info("session created",
		slog.String("sessionId", s.PublicID.String()),
		slog.Int("sideLen", dto.SideLen),
	)
	h.sendSession(w, s, nil)
}

// Join registers the signed-in account as the session's next player,
// collecting the registration fee first.
func (h GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var player tiles.Player
	err := s.Do(r.Context(), func(g *tiles.Game) error {
		if err := g.CanRegister(); err != nil {
			return err
		}
		if err := h.ledger.CollectFee(r.Context(), s.ID, claims.Username, g.FeeRate); err != nil {
			return err
		}
		p, err := g.Register(claims.Username, time.Now())
		player = p
		return err
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.logger.Info("player joined",
		slog.String("sessionId", s.PublicID.String()),
		slog.String("username", claims.Username),
		slog.Int("playerId", int(player.ID)),
	)
	h.sendSession(w, s, nil)
}

// Move applies one step for the signed-in player.
func (h GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	dto, err := ParseMoveDTO(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	dir, err := tiles.ParseDirection(dto.Direction)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	var events []tiles.Event
	err = s.Do(r.Context(), func(g *tiles.Game) error {
		res, err := g.Move(dto.PlayerID, claims.Username, dir, time.Now())
		if err != nil {
			return err
		}
		events = res.Events
		return nil
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.sendSession(w, s, events)
}

// Power spends the player's charge on a power push.
func (h GameHandler) Power(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	dto, err := ParseMoveDTO(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	dir, err := tiles.ParseDirection(dto.Direction)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	var events []tiles.Event
	err = s.Do(r.Context(), func(g *tiles.Game) error {
		if err := g.VerifyIdentity(dto.PlayerID, claims.Username); err != nil {
			return err
		}
		res, err := g.UsePower(dto.PlayerID, dir)
		if err != nil {
			return err
		}
		events = res.Events
		return nil
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.sendSession(w, s, events)
}

// Spawn relocates a special tile. Admin only: randomness arrives from
// the relayer as an already-delivered byte, or is drawn locally when
// the caller leaves it out.
func (h GameHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminClaims(w, r); !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	kind, err := tiles.ParseTileKind(r.URL.Query().Get("kind"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	randByte := randomByte()
	if v := r.URL.Query().Get("rand"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, h.logger, wrapError(err))
			return
		}
		randByte = uint8(n)
	}
	var landed int
	err = s.Do(r.Context(), func(g *tiles.Game) error {
		landed = g.SpawnTile(kind, randByte)
		return nil
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.logger.Debug("tile spawned",
		slog.String("sessionId", s.PublicID.String()),
		slog.String("kind", kind.String()),
		slog.Int("cell", landed),
	)
	h.sendSession(w, s, nil)
}

// SetKing force-places the king on an empty cell. Admin testing hook.
func (h GameHandler) SetKing(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminClaims(w, r); !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.logger, wrapError(err))
		return
	}
	err = s.Do(r.Context(), func(g *tiles.Game) error {
		return g.SetKingPosition(index)
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.sendSession(w, s, nil)
}

// Tick grants a point to whoever holds the king's cell. Admin only;
// called on a cadence by the relayer.
func (h GameHandler) Tick(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminClaims(w, r); !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var scored uint8
	err := s.Do(r.Context(), func(g *tiles.Game) error {
		scored = g.TickScore()
		return nil
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	sendJSONOrLog(w, h.logger, map[string]uint8{"scored_player": scored})
}

// Finalize freezes an expired session and records the reward payouts
// at the session's configured rate. The frozen state and the reward
// rows land in one transaction, and a failed attempt rolls the session
// back, so the call can be retried until it sticks.
func (h GameHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminClaims(w, r); !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	err := s.Finalize(r.Context(), func(g *tiles.Game) ([]repository.CreateLedgerEntryParams, error) {
		standings, err := g.Finalize(time.Now())
		if err != nil {
			return nil, err
		}
		return ledger.PayoutEntries(s.ID, standings, g.RewardRate), nil
	})
	if err != nil {
		h.rejectCore(w, err)
		return
	}
	h.sendSession(w, s, nil)
}

// ListActive returns the public ids of every activated, unfinalized
// session. The external relayer polls this to learn what to drive.
func (h GameHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListActiveGameSessions(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.logger.Error("unable to list active sessions", "error", err)
		return
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.PublicID.String()
	}
	sendJSONOrLog(w, h.logger, map[string][]string{"session_ids": ids})
}

// Fetch returns the current session snapshot.
func (h GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sendSession(w, s, nil)
}

// Standings returns the players ordered by score, best first.
func (h GameHandler) Standings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var standings []tiles.Standing
	s.View(func(g *tiles.Game) {
		standings = g.Standings()
	})
	type standingDTO struct {
		Username string `json:"username"`
		PlayerID uint8  `json:"player_id"`
		Score    uint64 `json:"score"`
	}
	dtos := make([]standingDTO, len(standings))
	for i, st := range standings {
		dtos[i] = standingDTO{
			Username: st.Identity,
			PlayerID: st.PlayerID,
			Score:    st.Score,
		}
	}
	sendJSONOrLog(w, h.logger, dtos)
}

// Ledger lists the session's fee and reward movements.
func (h GameHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	entries, err := h.repo.ListLedgerEntries(r.Context(), s.ID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.logger.Error("unable to list ledger entries", "error", err)
		return
	}
	type entryDTO struct {
		Username string `json:"username"`
		Kind     string `json:"kind"`
		Amount   int64  `json:"amount"`
	}
	dtos := make([]entryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = entryDTO{Username: e.Username, Kind: e.Kind, Amount: e.Amount}
	}
	sendJSONOrLog(w, h.logger, dtos)
}
