// Composer - composition guidance server for connected cameras.
// Cameras stream frames over websocket and receive per-frame guidance,
// zoom commands and reacquire requests.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-compose/internal/config"
	"github.com/teslashibe/go-compose/internal/log"
	"github.com/teslashibe/go-compose/pkg/composer"
)

func main() {
	cfg, level := parseFlags()

	log.Init(level)

	app, err := composer.New(cfg, log.Component("composer"))
	if err != nil {
		stdlog.Fatalf("Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		stdlog.Fatalf("Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		stdlog.Fatalf("Runtime error: %v", err)
	}
}

// parseFlags parses command line flags, applies the environment and the
// tuning file, and returns configuration and the log level.
func parseFlags() (composer.Config, string) {
	cfg := composer.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", "", "Listen port (overrides COMPOSER_PORT, default "+composer.DefaultPort+")")
	logLevel := flag.String("log-level", config.Env("COMPOSER_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	tuning := flag.String("tuning", "", "TOML tuning file (overrides COMPOSER_TUNING)")
	faceModel := flag.String("face-model", "", "YuNet ONNX model for face detection (overrides COMPOSER_FACE_MODEL)")
	static := flag.String("static", "", "Directory served at / by the dashboard")
	flag.Parse()

	cfg.Debug = *debug
	cfg.TuningPath = *tuning
	cfg.FaceModel = *faceModel
	cfg.StaticDir = *static
	cfg.LoadEnvConfig()

	level := *logLevel
	if cfg.TuningPath != "" {
		t, err := config.LoadTuning(cfg.TuningPath)
		if err != nil {
			stdlog.Fatalf("Tuning error: %v", err)
		}
		if err := t.Apply(&cfg); err != nil {
			stdlog.Fatalf("Tuning error: %v", err)
		}
		if t.Server.LogLevel != "" {
			level = t.Server.LogLevel
		}
	}

	// Flags win over the environment and the tuning file.
	if *port != "" {
		cfg.Port = *port
	}
	if *debug {
		level = "debug"
	}
	return cfg, level
}
