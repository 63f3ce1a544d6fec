// Command klondike-debug deals one game and prints the shadow and client
// tables while drawing through the deck until it recycles.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"klondike/internal/app"
	"klondike/internal/config"
	"klondike/internal/domain"
	"klondike/internal/logger"
)

func main() {
	configPath := flag.String("config", envOr("KLONDIKE_CONFIG", "data/game_config.json"), "path to the game config")
	seed := flag.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	flag.Parse()

	if err := run(os.Stdout, *configPath, *seed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func run(w io.Writer, configPath string, seed int64) error {
	if err := config.LoadGameConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "using default config: %v\n", err)
	}
	cfg := config.GetGameConfig()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogJSON).WithField("seed", seed)

	svc := app.NewService(rand.New(rand.NewSource(seed)), nil, app.WithAutoReveal(cfg.AutoReveal))
	game, _, err := svc.StartGame(cfg.Mode(), cfg.Generation())
	if err != nil {
		return err
	}
	log.Info("dealt game %s in %s mode", game.ID, game.Mode)

	if err := dumpBoth(w, game); err != nil {
		return err
	}

	for {
		events, err := svc.Draw(game)
		if err != nil {
			return err
		}
		if err := domain.Dump(w, game.Client); err != nil {
			return err
		}
		if recycled(events) {
			log.Info("deck recycled at generation %d", game.Clock)
			break
		}
	}

	return dumpBoth(w, game)
}

func dumpBoth(w io.Writer, game *domain.Game) error {
	if _, err := fmt.Fprintln(w, "shadow"); err != nil {
		return err
	}
	if err := domain.Dump(w, game.Shadow); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "client"); err != nil {
		return err
	}
	return domain.Dump(w, game.Client)
}

// recycled reports whether a draw turned the waste back over, or found
// nothing at all to draw.
func recycled(events []app.Event) bool {
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case app.DeckRecycledPayload:
			return true
		case app.CardsDrawnPayload:
			if p.Count == 0 {
				return true
			}
		}
	}
	return false
}
