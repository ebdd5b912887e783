package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mazirhxxx/listlab/internal/analyze"
	"github.com/mazirhxxx/listlab/internal/avatar"
	"github.com/mazirhxxx/listlab/internal/clean"
	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
	"github.com/mazirhxxx/listlab/internal/store"
	"github.com/mazirhxxx/listlab/internal/verify"
	"github.com/mazirhxxx/listlab/pkg/scoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		// The scoring webhook is optional for serve: without it the verify
		// endpoint reports a configuration error instead.
		var sc scoring.Client
		if cfg.Scoring.WebhookURL != "" {
			sc, err = initScoring()
			if err != nil {
				return err
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, sc, initCleaner(st)),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the dashboard API. sc may be nil when no scoring webhook
// is configured; the verify endpoint then returns 503.
func newRouter(st store.Store, sc scoring.Client, cleaner *clean.Cleaner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/lists/{listID}/analysis", func(w http.ResponseWriter, req *http.Request) {
		analysis, err := analyze.New(st).Analyze(req.Context(), chi.URLParam(req, "listID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})

	r.Post("/api/lists/{listID}/clean", func(w http.ResponseWriter, req *http.Request) {
		var opts clean.Options
		if err := json.NewDecoder(req.Body).Decode(&opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		listID := chi.URLParam(req, "listID")
		analysis, err := analyze.New(st).Analyze(req.Context(), listID)
		if err != nil {
			writeError(w, err)
			return
		}

		result, err := cleaner.Run(req.Context(), analysis, opts, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/api/avatar/extract", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, avatar.ExtractFromText(body.Text))
	})

	r.Post("/api/lists/{listID}/verify", func(w http.ResponseWriter, req *http.Request) {
		if sc == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no scoring webhook configured"})
			return
		}

		var body struct {
			OwnerID string           `json:"owner_id"`
			Avatar  model.AvatarSpec `json:"avatar"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		session, err := verify.NewOrchestrator(st, st, sc).Run(req.Context(), body.OwnerID, chi.URLParam(req, "listID"), body.Avatar)
		if err != nil && session == nil {
			writeError(w, err)
			return
		}
		// A failed session is still a session: the dashboard renders its
		// terminal state and error summary.
		writeJSON(w, http.StatusOK, session)
	})

	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		session, err := st.GetSession(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, req *http.Request) {
		sessions, err := st.ListSessions(req.Context(), req.URL.Query().Get("owner"), 100)
		if err != nil {
			writeError(w, err)
			return
		}
		if sessions == nil {
			sessions = []model.CleaningSession{}
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Raw upstream bodies
// stay in the logs; clients get the classified message only.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case resilience.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case resilience.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
