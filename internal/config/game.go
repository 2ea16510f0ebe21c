package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Game holds the operator-level game parameters: the economics applied
// to every new session and the account allowed to call the privileged
// endpoints (session creation, tile spawns, score ticks, finalize).
type Game struct {
	FeeRate       int64
	RewardRate    int64
	AdminUsername string
}

func lookupInt64(name string) (int64, error) {
	s, ok := os.LookupEnv(name)
	if !ok {
		return 0, fmt.Errorf("no %s env variable set", name)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %s: %w", name, err)
	}
	return v, nil
}

func NewGame() (*Game, error) {
	feeRate, err := lookupInt64("GAME_FEE_RATE")
	if err != nil {
		return nil, err
	}
	rewardRate, err := lookupInt64("GAME_REWARD_RATE")
	if err != nil {
		return nil, err
	}
	admin, ok := os.LookupEnv("GAME_ADMIN_USERNAME")
	if !ok {
		return nil, fmt.Errorf("no GAME_ADMIN_USERNAME env variable set")
	}
	return &Game{
		FeeRate:       feeRate,
		RewardRate:    rewardRate,
		AdminUsername: admin,
	}, nil
}

// Relayer holds the cadences of the periodic board operations. The
// score tick runs the fastest; the special tiles respawn on their own
// slower rhythms.
type Relayer struct {
	TickEvery    time.Duration
	KingEvery    time.Duration
	PowerupEvery time.Duration
	BombEvery    time.Duration
}

func lookupDuration(name string, fallback time.Duration) (time.Duration, error) {
	s, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %s: %w", name, err)
	}
	return d, nil
}

func NewRelayer() (*Relayer, error) {
	tick, err := lookupDuration("RELAYER_TICK_EVERY", time.Second)
	if err != nil {
		return nil, err
	}
	king, err := lookupDuration("RELAYER_KING_EVERY", 10*time.Second)
	if err != nil {
		return nil, err
	}
	powerup, err := lookupDuration("RELAYER_POWERUP_EVERY", 15*time.Second)
	if err != nil {
		return nil, err
	}
	bomb, err := lookupDuration("RELAYER_BOMB_EVERY", 12*time.Second)
	if err != nil {
		return nil, err
	}
	return &Relayer{
		TickEvery:    tick,
		KingEvery:    king,
		PowerupEvery: powerup,
		BombEvery:    bomb,
	}, nil
}
