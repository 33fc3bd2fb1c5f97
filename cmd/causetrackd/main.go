package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/causetrack/internal/config"
	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/event"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/core/tracker"
	"github.com/l1jgo/causetrack/internal/data"
	"github.com/l1jgo/causetrack/internal/persist"
	"github.com/l1jgo/causetrack/internal/schedule"
	"github.com/l1jgo/causetrack/internal/scripting"
	"github.com/l1jgo/causetrack/internal/system"
	"github.com/l1jgo/causetrack/internal/world"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            causetrack  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", name)
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
	cfgPath := "config/causetrack.toml"
	if p := os.Getenv("CAUSETRACK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Phase catalog and world data
	printSection("catalog")
	catalog, err := data.LoadPhaseCatalog(cfg.Tracker.CatalogPath)
	if err != nil {
		return fmt.Errorf("phase catalog: %w", err)
	}
	reg, err := data.BuildRegistry(catalog, cfg.Tracker.MergePhases)
	if err != nil {
		return fmt.Errorf("phase registry: %w", err)
	}
	printStat("phases", reg.Count())
	printStat("catalog overrides", catalog.Count())

	blocks, err := data.LoadBlockTable(cfg.World.BlockTablePath)
	if err != nil {
		return fmt.Errorf("block table: %w", err)
	}
	printStat("block types", blocks.Count())
	fmt.Println()

	// 4. Optional cause log database
	var (
		journal  *persist.Journal
		causeLog *persist.CauseLogRepo
	)
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("migrations applied (version %d)", version))
		fmt.Println()

		causeLog = persist.NewCauseLogRepo(db)
		journal = persist.NewJournal(cfg.Persist.JournalCapacity, log)
	}

	// 5. World, committer, tracker, scheduler
	ws := world.NewState(blocks, cfg.World.GroundItemTTL, log.Named("world"))
	bus := event.NewBus()

	opts := commit.Options{Bus: bus, MaxPasses: cfg.Tracker.MaxCommitPasses}
	if journal != nil {
		opts.Journal = journal
	}
	committer := commit.New(ws, log.Named("commit"), opts)

	tr, err := tracker.New(reg, committer, log.Named("tracker"))
	if err != nil {
		return fmt.Errorf("tracker: %w", err)
	}

	sched := schedule.New(tr, cfg.Scheduler.QueueSize, cfg.Scheduler.MaxPerTick, log.Named("schedule"))
	ws.SetScheduler(sched)

	event.Subscribe(bus, func(ev commit.CommitCompleted) {
		log.Debug("commit",
			zap.String("phase", ev.Phase),
			zap.Any("source", ev.Source),
			zap.Stringer("outcome", ev.Outcome),
			zap.Int("applied", ev.Applied),
			zap.Int("elided", ev.Elided),
			zap.Int("failed", ev.Failed))
	})

	// 6. Lua scripts
	printSection("scripts")
	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	luaEngine.Bind(ws, tr)
	printStat("listeners", luaEngine.AttachListeners(bus))
	printStat("plugins", len(luaEngine.Plugins()))
	fmt.Println()

	// 7. Initial terrain
	if cfg.World.TerrainRadius > 0 {
		if err := system.GenerateTerrain(tr, ws, cfg.World.TerrainRadius, cfg.World.TerrainY, "STONE"); err != nil {
			return fmt.Errorf("world gen: %w", err)
		}
	}

	// 8. Create systems and register with runner
	runner := coresys.NewRunner(tr, log.Named("runner"))
	inputSys := system.NewInputSystem(luaEngine, 64, 16, log)
	runner.Register(inputSys)
	runner.Register(system.NewScheduleSystem(sched))
	runner.Register(system.NewBlockTickSystem(ws, tr, luaEngine, cfg.World.MaxBlockTicks, log))
	runner.Register(system.NewEntityTickSystem(ws, tr, luaEngine, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	var persistSys *system.PersistenceSystem
	if journal != nil {
		persistSys = system.NewPersistenceSystem(journal, causeLog, log, cfg.Persist.FlushIntervalTicks)
		persistSys.SetRetention(causeLog, cfg.Persist.RetentionDays, cfg.Persist.PruneEveryFlushes)
		runner.Register(persistSys)
		inputSys.SetCauseLookup(causeLog)
	}
	runner.Register(system.NewCleanupSystem(ws.ECS(), log))

	go readConsole(inputSys, log)

	if cfg.Metrics.Listen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	if cfg.Metrics.Listen != "" {
		printReady(fmt.Sprintf("metrics on %s/metrics", cfg.Metrics.Listen))
	}
	printReady(fmt.Sprintf("loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if err := runner.Tick(cfg.Server.TickRate); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			sched.Shutdown()
			if persistSys != nil {
				persistSys.Flush()
			}
			log.Info("stopped",
				zap.Int("blocks", ws.BlockCount()),
				zap.Int("entities", ws.ECS().Live()),
				zap.Int("leaked_contexts", runner.Leaks()))
			return nil
		}
	}
}

// readConsole forwards stdin lines to the input system until EOF.
func readConsole(in *system.InputSystem, log *zap.Logger) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := in.Enqueue(line); err != nil {
			log.Warn("console line dropped", zap.String("line", line), zap.Error(err))
		}
	}
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
