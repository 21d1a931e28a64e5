package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/collector"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := initEnv(cfg)
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/v1/stages", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, e.Recorder.Events())
		})

		r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
			handleAnalyze(e, w, req)
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func handleAnalyze(e *env, w http.ResponseWriter, req *http.Request) {
	var body struct {
		Platform string `json:"platform"`
		Industry string `json:"industry"`
		NoCache  bool   `json:"no_cache"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	platform, err := model.ParsePlatform(body.Platform)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.Industry == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "industry is required"})
		return
	}

	ctx := req.Context()

	if !body.NoCache {
		cached, err := e.Cache.Get(ctx, platform, body.Industry)
		if err != nil {
			zap.L().Warn("serve: cache lookup failed", zap.Error(err))
		} else if cached != nil {
			w.Header().Set("X-Cache", "hit")
			w.Header().Set("X-Cache-Date", cached.CachedAt.Format(time.RFC3339))
			writeJSON(w, http.StatusOK, cached.Result)
			return
		}
	}

	result, err := e.Runner.Run(ctx, pipeline.Request{Platform: platform, Industry: body.Industry})
	if err != nil {
		var pErr *pipeline.PipelineError
		status := http.StatusBadGateway
		if errors.As(err, &pErr) && errors.Is(pErr.Err, collector.ErrUnsupportedPlatform) {
			status = http.StatusBadRequest
		}
		zap.L().Error("serve: analysis failed",
			zap.String("platform", body.Platform),
			zap.String("industry", body.Industry),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if cacheErr := e.Cache.Set(ctx, *result); cacheErr != nil {
		zap.L().Warn("serve: cache store failed", zap.Error(cacheErr))
	}

	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
