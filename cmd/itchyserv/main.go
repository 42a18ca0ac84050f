// Command itchyserv listens for live MoldUDP64/ITCH traffic and
// prints or validates it, grounded on original_source/itchyserv.c's
// recvfrom loop (spec.md §6) and SPEC_FULL.md's added --metrics-addr/
// --ws-addr/--nats-subject fan-out flags. Unlike itchygen and
// itchyparse, this is the one long-running service among the three,
// so it is also the only tool that loads optional environment-based
// tuning (config.go) and honors signal-driven shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/nezhinsky/itchygen/internal/cliargs"
	"github.com/nezhinsky/itchygen/internal/itcherr"
	"github.com/nezhinsky/itchygen/internal/livefeed"
	"github.com/nezhinsky/itchygen/internal/obslog"
	"github.com/nezhinsky/itchygen/internal/replay"
	"github.com/nezhinsky/itchygen/internal/telemetry"
)

const version = "itchyserv 1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		port        = flag.String("port", "", "UDP port to listen on, 1024-65535 (required)")
		mode        = flag.String("mode", "", "processing mode: print or validate (defaults to ITCHYSERV_MODE env, else print)")
		metricsAddr = flag.String("metrics-addr", "", "optional address to serve /metrics and /healthz on, e.g. :9090")
		wsAddr      = flag.String("ws-addr", "", "optional address to serve the live WebSocket feed on, e.g. :8090")
		natsURL     = flag.String("nats-url", "", "NATS server URL for --nats-subject fan-out")
		natsSubject = flag.String("nats-subject", "", "NATS subject to publish decoded ticks on")
		debug       = flag.Bool("debug", false, "enable debug logging")
		verbose     = flag.Bool("verbose", false, "log one line per decoded event")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	bootLogger := obslog.New(obslog.Config{Level: obslog.LevelInfo, Format: obslog.FormatPretty, Component: "itchyserv"})

	envCfg, err := loadEnvConfig(bootLogger)
	if err != nil {
		bootLogger.Error().Err(err).Msg("invalid environment configuration")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}

	level := obslog.LevelInfo
	if *debug || envCfg.LogLevel == "debug" {
		level = obslog.LevelDebug
	}
	format := obslog.FormatPretty
	if envCfg.LogFormat == "json" {
		format = obslog.FormatJSON
	}
	logger := obslog.New(obslog.Config{Level: level, Format: format, Component: "itchyserv"})
	envCfg.logConfig(logger)

	if *port == "" {
		fmt.Fprintln(os.Stderr, "itchyserv: --port is required")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}
	portNum, err := cliargs.ParsePort(*port)
	if err != nil {
		logger.Error().Err(err).Msg("invalid --port")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}

	modeStr := *mode
	if modeStr == "" {
		modeStr = envCfg.Mode
	}
	var replayMode replay.Mode
	switch modeStr {
	case "print":
		replayMode = replay.ModePrint
	case "validate":
		replayMode = replay.ModeValidate
	default:
		logger.Error().Str("mode", modeStr).Msg("invalid --mode: must be print or validate")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}

	var hub *livefeed.Hub
	if *wsAddr != "" {
		hub = livefeed.New(logger)
		defer hub.Close()
		mux := http.NewServeMux()
		mux.HandleFunc("/", hub.ServeHTTP)
		srv := &http.Server{Addr: *wsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("ws-addr server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", *wsAddr).Msg("live WebSocket feed listening")
	}

	var publisher *livefeed.Publisher
	if *natsSubject != "" {
		if *natsURL == "" {
			logger.Error().Msg("--nats-subject requires --nats-url")
			return itcherr.ExitCode(itcherr.ErrInvalidArgument)
		}
		publisher, err = livefeed.Connect(*natsURL, *natsSubject)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to NATS")
			return itcherr.ExitCode(itcherr.ErrIO)
		}
		defer publisher.Close()
		logger.Info().Str("url", *natsURL).Str("subject", *natsSubject).Msg("publishing decoded ticks to NATS")
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics-addr server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", *metricsAddr).Msg("metrics server listening")
	}

	server, err := replay.New(replay.Config{
		Port:      int(portNum),
		Mode:      replayMode,
		Hub:       hub,
		Publisher: publisher,
		Verbose:   *verbose,
		Debug:     *debug,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().Uint16("port", portNum).Str("mode", modeStr).Msg("itchyserv listening")
	start := time.Now()
	stats, err := server.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("server run failed")
		return itcherr.ExitCode(itcherr.ErrIO)
	}

	telemetry.RecordsParsed.Add(float64(stats.PacketsReceived))

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Uint64("packets_received", stats.PacketsReceived).
		Uint64("orders", stats.Orders).
		Uint64("execs", stats.Execs).
		Uint64("cancels", stats.Cancels).
		Uint64("replaces", stats.Replaces).
		Uint64("timestamps", stats.Timestamps).
		Uint64("seq_errors", stats.SeqErrors).
		Uint64("illegal_types", stats.IllegalTypes).
		Msg("itchyserv shutting down")

	if summary, err := telemetry.DumpText(); err == nil {
		logger.Debug().Str("metrics", summary).Msg("final metrics")
	}

	return 0
}
