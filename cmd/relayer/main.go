// The relayer drives the periodic board operations of a running server
// from outside the process: it signs in as the operator account and
// calls the privileged endpoints on a set of tickers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
	"golang.org/x/sync/errgroup"

	"github.com/kingstack/kingtiles-server/internal/config"
)

var log = logrus.New()

func setupLogging() {
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	if config.Development() {
		log.SetLevel(logrus.DebugLevel)
	}

	logFile, ok := os.LookupEnv("RELAYER_LOG_FILE")
	if !ok {
		return
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   logFile,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      logrus.InfoLevel,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		log.Fatal("unable to create log file hook: ", err)
	}
	log.AddHook(hook)
}

type relayer struct {
	client  *http.Client
	baseURL string
}

func (r *relayer) login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, r.baseURL+"/login",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected with status %d", res.StatusCode)
	}
	return nil
}

func (r *relayer) activeSessions(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, r.baseURL+"/game", nil,
	)
	if err != nil {
		return nil, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session listing rejected with status %d", res.StatusCode)
	}
	var body struct {
		SessionIds []string `json:"session_ids"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.SessionIds, nil
}

func (r *relayer) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, r.baseURL+path, nil,
	)
	if err != nil {
		return err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// Conflicts are routine: not-yet-full and expired sessions reject
	// ticks and spawns until a player joins or an operator finalizes.
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusConflict {
		return fmt.Errorf("%s rejected with status %d", path, res.StatusCode)
	}
	return nil
}

func (r *relayer) every(
	ctx context.Context, d time.Duration, pathFor func(id string) string,
) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ids, err := r.activeSessions(ctx)
			if err != nil {
				log.Error("unable to list sessions: ", err)
				continue
			}
			for _, id := range ids {
				path := pathFor(id)
				if err := r.post(ctx, path); err != nil {
					log.Error("unable to relay operation: ", err)
				} else {
					log.Debug("relayed ", path)
				}
			}
		}
	}
}

func mustEnv(name string) string {
	v, ok := os.LookupEnv(name)
	if !ok {
		log.Fatalf("no %s env variable set", name)
	}
	return v
}

func main() {
	setupLogging()

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	cadence, err := config.NewRelayer()
	if err != nil {
		log.Fatal("unable to read cadence config: ", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal("unable to create cookie jar: ", err)
	}

	r := &relayer{
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(mustEnv("RELAYER_SERVER_URL"), "/"),
	}

	username := mustEnv("RELAYER_USERNAME")
	password := mustEnv("RELAYER_PASSWORD")
	if err := r.login(ctx, username, password); err != nil {
		log.Fatal("unable to sign in: ", err)
	}
	log.Info("signed in as ", username)

	spawnPath := func(kind string) func(id string) string {
		return func(id string) string {
			return fmt.Sprintf(
				"/game/%s/spawn?kind=%s&rand=%d", id, kind, rand.IntN(256),
			)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.every(ctx, cadence.TickEvery, func(id string) string {
			return fmt.Sprintf("/game/%s/tick", id)
		})
	})
	g.Go(func() error { return r.every(ctx, cadence.KingEvery, spawnPath("king")) })
	g.Go(func() error { return r.every(ctx, cadence.PowerupEvery, spawnPath("powerup")) })
	g.Go(func() error { return r.every(ctx, cadence.BombEvery, spawnPath("bomb")) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	log.Info("relayer stopped")
}
