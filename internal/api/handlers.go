// Package api exposes HTTP handlers for previewing and triggering recaps.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/auth"
	"github.com/minormending/slack-run-across-america/internal/errtrack"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

// Runner builds and delivers one recap job. *recap.Dispatcher implements it.
type Runner interface {
	Run(ctx context.Context, job recap.Job) (recap.Result, error)
}

// SubscriptionStore persists recap subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, sub recap.Subscription) (recap.Subscription, error)
	ListEnabled(ctx context.Context) ([]recap.Subscription, error)
}

// Handler coordinates HTTP requests with the recap builder and dispatcher.
type Handler struct {
	reporter       recap.Reporter
	runner         Runner
	subscriptions  SubscriptionStore
	defaultChannel string
	logger         *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithSubscriptions enables the subscription endpoints.
func WithSubscriptions(store SubscriptionStore) Option {
	return func(h *Handler) {
		h.subscriptions = store
	}
}

// WithDefaultChannel sets the channel used when a trigger omits one.
func WithDefaultChannel(channel string) Option {
	return func(h *Handler) {
		h.defaultChannel = channel
	}
}

// WithLogger overrides the handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler builds a Handler.
func NewHandler(reporter recap.Reporter, runner Runner, opts ...Option) *Handler {
	h := &Handler{reporter: reporter, runner: runner, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/recaps", h.recaps)
	mux.HandleFunc("/v1/recaps/preview", h.previewRecap)
	mux.HandleFunc("/v1/subscriptions", h.subscriptionsRoute)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) recaps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.triggerRecap(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) subscriptionsRoute(w http.ResponseWriter, r *http.Request) {
	if h.subscriptions == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "subscriptions require POSTGRES_URL")
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.listSubscriptions(w, r)
	case http.MethodPost:
		h.createSubscription(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) previewRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopeRecapsRead, auth.ScopeRecapsWrite) {
		return
	}

	query := r.URL.Query()
	req := recap.Request{
		Team: recap.TeamSelector{
			ID:   strings.TrimSpace(query.Get("team_id")),
			Name: strings.TrimSpace(query.Get("team_name")),
		},
		Cutoff: recap.CutoffPolicy(query.Get("cutoff")),
	}
	if raw := query.Get("window_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "window_hours must be a positive integer")
			return
		}
		req.Window = time.Duration(hours) * time.Hour
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	report, err := h.reporter.Build(r.Context(), req)
	if err != nil {
		h.writeBuildError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, ToReportView(report))
}

func (h *Handler) triggerRecap(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeRecapsWrite) {
		return
	}

	var body TriggerRecapRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	job, err := body.Job(h.defaultChannel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := h.runner.Run(r.Context(), job)
	if err != nil {
		h.writeBuildError(w, job.Request, err)
		return
	}
	h.logger.Info("recap triggered",
		zap.String("subject", auth.Subject(r.Context())),
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
	)
	writeJSON(w, http.StatusAccepted, RunView{RunID: res.RunID, Status: string(res.Status)})
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeRecapsRead, auth.ScopeRecapsWrite) {
		return
	}
	subs, err := h.subscriptions.ListEnabled(r.Context())
	if err != nil {
		h.logger.Error("list subscriptions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	items := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		items = append(items, toSubscriptionView(sub))
	}
	writeJSON(w, http.StatusOK, ListSubscriptionsResponse{Items: items})
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeRecapsWrite) {
		return
	}

	var body CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	sub, err := body.Subscription()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	created, err := h.subscriptions.Create(r.Context(), sub)
	if err != nil {
		h.logger.Error("create subscription", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionView(created))
}

func (h *Handler) writeBuildError(w http.ResponseWriter, req recap.Request, err error) {
	switch {
	case errors.Is(err, recap.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, recap.ErrNoReport):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Error("recap failed", zap.String("team", req.Team.String()), zap.Error(err))
		errtrack.CaptureException(err, map[string]string{"team": req.Team.String()})
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	}
}

func authorize(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return false
	}
	return true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
