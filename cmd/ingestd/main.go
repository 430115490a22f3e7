package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/jobs"
	"launchradar/ingest/internal/runlog"
	"launchradar/ingest/internal/scheduler"
	"launchradar/ingest/internal/server"
	"launchradar/ingest/internal/store"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func usage() {
	fmt.Println("Usage: ingestd [command] [options]")
	fmt.Println("Commands:")
	fmt.Println("  start    run the scheduler and the admin API")
	fmt.Println("  run      execute a single job once and exit")
	fmt.Println("  server   serve the admin API without the scheduler")
	fmt.Println("\nFor command-specific options, use: ingestd [command] -h")
}

func main() {
	cfg := config.DefaultConfig()

	startCmd := flag.NewFlagSet("start", flag.ExitOnError)
	addCommonFlags(startCmd, cfg)
	addServerFlags(startCmd, cfg)

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	addCommonFlags(runCmd, cfg)
	var force bool
	runCmd.BoolVar(&force, "force", false, "Bypass cooldown gates for this run")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	addCommonFlags(serverCmd, cfg)
	addServerFlags(serverCmd, cfg)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		startCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runStart(cfg)

	case "run":
		runCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		if runCmd.NArg() < 1 {
			fmt.Println("Usage: ingestd run [options] <job>")
			os.Exit(1)
		}
		err = runOnce(cfg, runCmd.Arg(0), force)

	case "server":
		serverCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runServer(cfg)

	case "-h", "--help", "help":
		usage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

var logLevelStr string

func addCommonFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("INGEST_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: INGEST_DB_PATH)")
	fs.StringVar(&cfg.SourcesPath, "sources", config.GetEnvString("INGEST_SOURCES_PATH", config.DefaultSourcesPath),
		"Path to the YAML source catalog (env: INGEST_SOURCES_PATH)")
	fs.StringVar(&logLevelStr, "log-level", config.GetEnvString("INGEST_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: INGEST_LOG_LEVEL)")
}

func addServerFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.ServerHost, "host", config.GetEnvString("INGEST_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: INGEST_HOST)")
	fs.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("INGEST_PORT", config.DefaultServerPort),
		"Port to listen on (env: INGEST_PORT)")
}

func applyLogLevel(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

// deps bundles everything a command needs after bootstrapping.
type deps struct {
	db       *database.DB
	store    *store.Store
	recorder *runlog.Recorder
	runner   *jobs.Runner
}

func bootstrap(cfg *config.Config) (*deps, error) {
	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	st := store.New(db)
	recorder := runlog.New(db)
	runner := jobs.NewRunner(cfg, sources, st, recorder)

	return &deps{db: db, store: st, recorder: recorder, runner: runner}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()
	return ctx, cancel
}

// runStart runs the scheduler and the admin API side by side until a
// shutdown signal arrives.
func runStart(cfg *config.Config) error {
	d, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer d.db.Close()

	sched := scheduler.New()
	if err := d.runner.Register(sched); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sched.Start(ctx)
	defer sched.Stop()

	trigger := jobs.NewManualTrigger(sched, d.runner)
	handler := server.Handler(d.db, d.store, d.recorder, trigger, log.Logger, cfg.APIKey)
	return server.Run(ctx, handler, cfg.ListenAddr(), log.Logger)
}

// runOnce executes a single job synchronously and exits.
func runOnce(cfg *config.Config, job string, force bool) error {
	d, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer d.db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sched := scheduler.New()
	if err := d.runner.Register(sched); err != nil {
		return err
	}

	trigger := jobs.NewManualTrigger(sched, d.runner)
	log.Info().Str("job", job).Bool("force", force).Msg("Running job once")
	entry, err := trigger.Run(ctx, job, force)
	if err != nil {
		return err
	}
	log.Info().Str("status", entry.Status).Int("fetched", entry.Fetched).
		Int("inserted", entry.Inserted).Int("skipped", entry.Skipped).
		Msg("Job finished")
	return nil
}

// runServer serves the admin API only; useful next to a separate scheduler
// process pointed at the same database.
func runServer(cfg *config.Config) error {
	d, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer d.db.Close()

	sched := scheduler.New()
	if err := d.runner.Register(sched); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	trigger := jobs.NewManualTrigger(sched, d.runner)
	handler := server.Handler(d.db, d.store, d.recorder, trigger, log.Logger, cfg.APIKey)
	return server.Run(ctx, handler, cfg.ListenAddr(), log.Logger)
}
