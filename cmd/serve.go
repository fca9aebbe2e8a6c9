package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/dispatch"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/monitoring"
	"github.com/leadlab/enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for enrichment triggers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		coordinator := dispatch.NewCoordinator(
			env.Dispatcher, env.Store,
			cfg.Batch.Size,
			time.Duration(cfg.Batch.CooldownSecs)*time.Second,
		)
		collector := monitoring.NewCollector(env.Store)

		// Only one batch run at a time; triggers while busy get a 409.
		var batchRunning atomic.Bool

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			snap, err := collector.Collect(req.Context(), 10)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
			var in model.CompanyInput
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if in.Website == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "website is required"})
				return
			}

			go func() {
				stats, err := env.Dispatcher.Dispatch(ctx, []model.CompanyInput{in}, nil)
				if err != nil {
					zap.L().Error("enrich request aborted",
						zap.String("website", in.Website),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("enrich request finished",
					zap.String("website", in.Website),
					zap.Int("succeeded", stats.Succeeded),
					zap.Int("failed", stats.Failed),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":  "accepted",
				"website": in.Website,
			})
		})

		r.Post("/batch", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Industry string `json:"industry"`
				Limit    int    `json:"limit"`
				All      bool   `json:"all"`
			}
			if req.Body != nil {
				// An empty body triggers a full unenriched run.
				_ = json.NewDecoder(req.Body).Decode(&body)
			}

			if !batchRunning.CompareAndSwap(false, true) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "batch already running"})
				return
			}

			go func() {
				defer batchRunning.Store(false)
				stats, err := coordinator.RunBatches(ctx, store.Filter{
					Industry:   body.Industry,
					Unenriched: !body.All,
					Limit:      body.Limit,
				})
				if err != nil {
					zap.L().Error("batch run aborted", zap.Error(err))
					return
				}
				zap.L().Info("batch run finished",
					zap.Int("total", stats.Total),
					zap.Int("succeeded", stats.Succeeded),
					zap.Int("failed", stats.Failed),
					zap.Int("skipped", stats.Skipped),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
