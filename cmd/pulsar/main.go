package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/medleye27/Pulsar4x/internal/config"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	"github.com/medleye27/Pulsar4x/internal/data"
	"github.com/medleye27/Pulsar4x/internal/persist"
	"github.com/medleye27/Pulsar4x/internal/scripting"
	"github.com/medleye27/Pulsar4x/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, start time.Time) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             Pulsar4X  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        4X simulation core · Go            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mGame:\033[0m %s \033[90m(start %s)\033[0m\n\n", name, start.Format("2006-01-02"))
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/server.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Name, cfg.Game.StartDate)

	// 3. Static tables and scripts
	printSection("Data")
	tables, err := data.LoadTables(cfg.Paths.Data)
	if err != nil {
		return err
	}
	printStat("Sensor blueprints", tables.Sensors.Count())
	printStat("Weapon blueprints", tables.Weapons.Count())
	printStat("System templates", tables.Systems.Count())

	script, err := scripting.NewEngine(cfg.Paths.Scripts, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer script.Close()
	printOK("Lua formulas loaded")
	fmt.Println()

	// 4. Optional PostgreSQL save store
	var (
		repo    *persist.SaveRepo
		journal *persist.JournalRepo
	)
	if cfg.Database.Enabled {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("Schema at version %d", version))
		fmt.Println()
		repo = persist.NewSaveRepo(db)
		journal = persist.NewJournalRepo(db)
	}

	// 5. New game or resume
	printSection("Game")
	game, err := openGame(cfg, tables, script, repo, log)
	if err != nil {
		return err
	}
	printStat("Star systems", len(game.Systems()))
	printStat("Entities", game.Directory().Len())

	var saver *sim.RepoSaver
	if repo != nil {
		jr := sim.NewJournal(game, journal)
		saver = sim.NewRepoSaver(game, repo, cfg.Database.KeepSaves, log).WithJournal(jr)
		recap(game, jr, cfg.Game.Factions, log)
		if cfg.Simulation.AutosaveInterval > 0 {
			game.EnableAutosave(saver, cfg.Simulation.AutosaveInterval, cfg.Simulation.SaveTimeout)
			printOK(fmt.Sprintf("Autosave every %s of game time", cfg.Simulation.AutosaveInterval))
		}
	}
	watchEvents(game.Bus(), log)
	fmt.Println()

	// 6. Tick loop
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(max(cfg.Simulation.RealTimePerTick, time.Millisecond))
	defer ticker.Stop()

	printSection("Running")
	printReady(fmt.Sprintf("%s per tick, %d workers", cfg.Simulation.TickLength, cfg.Simulation.Workers))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if err := game.Advance(ctx, cfg.Simulation.TickLength); err != nil {
				log.Error("tick failed", zap.Uint64("tick", game.TickNumber()+1), zap.Error(err))
				return shutdown(game, saver, cfg, log, err)
			}
			if ce := log.Check(zap.DebugLevel, "tick"); ce != nil {
				ce.Write(zap.Uint64("tick", game.TickNumber()), zap.Time("game_time", game.Now()))
			}
			if cfg.Simulation.Ticks > 0 && game.TickNumber() >= uint64(cfg.Simulation.Ticks) {
				log.Info("tick limit reached", zap.Int("ticks", cfg.Simulation.Ticks))
				return shutdown(game, saver, cfg, log, nil)
			}

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			stop()
			return shutdown(game, saver, cfg, log, nil)
		}
	}
}

// openGame resumes the latest save when asked to and one exists, else seeds
// a new game from the config.
func openGame(cfg *config.Config, tables *data.Tables, script *scripting.Engine, repo *persist.SaveRepo, log *zap.Logger) (*sim.Game, error) {
	opts := sim.OptionsFromConfig(cfg, tables, script, log)

	if repo != nil && cfg.Database.Resume {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Simulation.SaveTimeout)
		defer cancel()
		snap, err := repo.Latest(ctx)
		switch {
		case err == nil:
			game, err := sim.Restore(opts, snap)
			if err != nil {
				return nil, fmt.Errorf("restore save %d: %w", snap.ID, err)
			}
			printOK(fmt.Sprintf("Resumed save %d at %s", snap.ID, snap.GameTime.Format("2006-01-02 15:04")))
			return game, nil
		case errors.Is(err, persist.ErrSaveNotFound):
			log.Info("no save to resume, starting a new game")
		default:
			return nil, fmt.Errorf("latest save: %w", err)
		}
	}

	game, err := sim.New(opts)
	if err != nil {
		return nil, err
	}
	for _, id := range cfg.Game.Systems {
		if _, err := game.SeedStarSystem(id); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Game.Factions {
		if _, err := game.CreateFaction(name); err != nil {
			return nil, err
		}
	}
	printOK("New game seeded")
	return game, nil
}

const recapEntries = 10

// recap logs the latest journal entries of each configured faction.
func recap(game *sim.Game, j *sim.Journal, factions []string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range factions {
		f, ok := game.Faction(name)
		if !ok {
			continue
		}
		entries, err := j.History(ctx, f, recapEntries)
		if err != nil {
			log.Warn("journal history unavailable", zap.String("faction", name), zap.Error(err))
			return
		}
		for _, e := range entries {
			log.Info(e.Text, zap.String("faction", name), zap.String("kind", e.Kind), zap.Time("at", e.At))
		}
	}
}

func watchEvents(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.TargetDestroyed) {
		log.Info("target destroyed",
			zap.String("system", ev.System),
			zap.Stringer("target", ev.Target),
			zap.Stringer("faction", ev.Faction),
		)
	})
	event.Subscribe(bus, func(ev event.ContactAcquired) {
		log.Debug("contact acquired",
			zap.Stringer("faction", ev.Faction),
			zap.String("name", ev.Name),
			zap.Float64("quality", ev.Quality),
		)
	})
	event.Subscribe(bus, func(ev event.Notice) {
		log.Info(ev.Text, zap.String("kind", ev.Kind), zap.Time("at", ev.At))
	})
}

// shutdown writes a final save when a save store is configured and returns
// cause.
func shutdown(game *sim.Game, saver *sim.RepoSaver, cfg *config.Config, log *zap.Logger, cause error) error {
	if saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Simulation.SaveTimeout)
		defer cancel()
		if err := saver.Save(ctx); err != nil {
			log.Error("final save failed", zap.Error(err))
			if cause == nil {
				cause = err
			}
		}
	}
	log.Info("simulation stopped", zap.Time("game_time", game.Now()), zap.Uint64("ticks", game.TickNumber()))
	return cause
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
