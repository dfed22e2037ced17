package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dermaven/skinsight-api/internal/config"
	"github.com/dermaven/skinsight-api/internal/dispatch"
	"github.com/dermaven/skinsight-api/internal/handlers"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// A missing .env file is fine; the environment itself may be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	dispatcher := dispatch.New(dispatch.Options{
		ModelDir:      cfg.ModelDir,
		DebugDir:      cfg.DebugDir,
		TFLiteThreads: cfg.TFLiteThreads,
		Logger:        logger,
	})
	defer dispatcher.Close()

	handler := handlers.NewHandler(dispatcher, logger)

	http.HandleFunc("/health", enableCORS(handler.Health))
	http.HandleFunc("/analyze", enableCORS(handler.Analyze))

	logger.Info("server starting",
		"port", cfg.Port,
		"model_dir", cfg.ModelDir,
	)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), nil); err != nil {
		return exitRuntime, fmt.Errorf("server failed: %w", err)
	}
	return exitOK, nil
}
