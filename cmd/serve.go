package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolution and conversion HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		r := buildRouter(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
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

func buildRouter(env *engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", handleResolve(env))
		r.Post("/suggest", handleSuggest(env))
		r.Post("/convert", handleConvert(env))
	})

	return r
}

type resolveRequest struct {
	Text       string `json:"text"`
	LocationID string `json:"location_id"`
	Kind       string `json:"kind"`
	Threshold  int    `json:"threshold"`
}

func handleResolve(env *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body resolveRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var opts []identity.ResolveOption
		if body.Threshold > 0 {
			opts = append(opts, identity.WithThreshold(body.Threshold))
		}

		result, err := env.identity.Resolve(req.Context(), body.Text, body.LocationID, itemKind(body.Kind), opts...)
		if err != nil {
			writeResolverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type suggestRequest struct {
	Text       string `json:"text"`
	LocationID string `json:"location_id"`
	Kind       string `json:"kind"`
	Max        int    `json:"max"`
}

func handleSuggest(env *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body suggestRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		max := body.Max
		if max <= 0 {
			max = cfg.Identity.MaxSuggestions
		}

		suggestions, err := env.identity.Suggest(req.Context(), body.Text, body.LocationID, itemKind(body.Kind), max)
		if err != nil {
			writeResolverError(w, err)
			return
		}
		if suggestions == nil {
			suggestions = []model.Suggestion{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
	}
}

type convertRequest struct {
	Quantity       float64 `json:"quantity"`
	FromUnit       string  `json:"from_unit"`
	ToUnit         string  `json:"to_unit"`
	IngredientID   string  `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	LocationID     string  `json:"location_id"`
}

func handleConvert(env *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body convertRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		from, ok := model.ParseUnit(body.FromUnit)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown unit %q", body.FromUnit))
			return
		}
		to, ok := model.ParseUnit(body.ToUnit)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown unit %q", body.ToUnit))
			return
		}

		creq := convert.Request{
			Quantity:       body.Quantity,
			FromUnit:       from,
			ToUnit:         to,
			IngredientID:   body.IngredientID,
			IngredientName: body.IngredientName,
			LocationID:     body.LocationID,
		}

		value, err := env.convert.Convert(req.Context(), creq)
		if err != nil {
			writeResolverError(w, err)
			return
		}

		path := convert.PathNone
		if value != nil {
			// Explain replays the same layers; with an answer in hand it
			// cannot miss.
			path, _ = env.convert.Explain(req.Context(), creq)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value": value,
			"path":  path,
		})
	}
}

func itemKind(s string) model.ItemKind {
	if s == "" {
		return model.KindIngredient
	}
	return model.ItemKind(s)
}

// writeResolverError maps malformed-input sentinels to 400 and everything
// else to 500.
func writeResolverError(w http.ResponseWriter, err error) {
	if errors.Is(err, identity.ErrEmptyText) || errors.Is(err, convert.ErrNegativeQuantity) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
