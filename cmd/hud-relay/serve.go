package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/net/ws"
	"github.com/BragginRites/bg3-hud-core-sub001/internal/persist"
)

var (
	serveAddr string
	redisURL  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long:  `Start the websocket relay. With a redis endpoint the server also verifies the HUD state store is reachable.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", envOr("HUD_RELAY_ADDR", ":8080"), "listen address")
	serveCmd.Flags().StringVar(&redisURL, "redis", envOr("HUD_RELAY_REDIS", ""), "redis endpoint for the HUD state store (optional)")
}

func envOr(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.Default()

	hub := ws.NewHub(logger)
	handler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if redisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: redisURL})
		defer client.Close()
		store, err := persist.NewRedisStore(&persist.RedisConfig{Client: client})
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
		logger.Printf("state store reachable at %s", redisURL)

		// Read-only debug view of a subject's stored blob.
		mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
			subject := r.URL.Query().Get("subject")
			if subject == "" {
				http.Error(w, "missing subject", http.StatusBadRequest)
				return
			}
			st, err := store.Load(r.Context(), subject)
			if errors.Is(err, persist.ErrNotFound) {
				http.Error(w, "no state for subject", http.StatusNotFound)
				return
			}
			if err != nil {
				logger.Printf("failed to load state for %s: %v", subject, err)
				http.Error(w, "store error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(st)
		})
	}

	srv := &http.Server{Addr: serveAddr, Handler: mux}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Printf("received shutdown signal, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("relay listening on %s", serveAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
