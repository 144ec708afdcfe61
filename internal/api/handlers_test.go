package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minormending/slack-run-across-america/internal/auth"
	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

var reportTime = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

type stubReporter struct {
	report *leaderboard.Report
	err    error
	got    []recap.Request
}

func (s *stubReporter) Build(_ context.Context, req recap.Request) (*leaderboard.Report, error) {
	s.got = append(s.got, req)
	return s.report, s.err
}

type stubRunner struct {
	result recap.Result
	err    error
	got    []recap.Job
}

func (s *stubRunner) Run(_ context.Context, job recap.Job) (recap.Result, error) {
	s.got = append(s.got, job)
	return s.result, s.err
}

type stubStore struct {
	subs    []recap.Subscription
	created []recap.Subscription
}

func (s *stubStore) Create(_ context.Context, sub recap.Subscription) (recap.Subscription, error) {
	sub.ID = "sub-new"
	sub.CreatedAt = reportTime
	s.created = append(s.created, sub)
	return sub, nil
}

func (s *stubStore) ListEnabled(context.Context) ([]recap.Subscription, error) {
	return s.subs, nil
}

func sampleReport() *leaderboard.Report {
	return &leaderboard.Report{
		TeamID:       "t-1",
		TeamName:     "Team Rocket",
		GoalDistance: 1000,
		Progress:     255,
		Leaders: []leaderboard.Member{
			{ID: "m1", FirstName: "Ada", LastName: "L", Rank: 1, DistanceKm: 120},
			{ID: "m2", FirstName: "Bo", LastName: "K", DistanceKm: 90},
		},
		CategoryLeaders: map[leaderboard.Category]leaderboard.CategoryLeader{
			leaderboard.Walking: {Category: leaderboard.Walking, MemberID: "m4", FirstName: "Cy", DistanceKm: 12, Duration: 2 * time.Hour},
			leaderboard.Biking:  {Category: leaderboard.Biking, MemberID: "m5", FirstName: "Di", DistanceKm: 30, Duration: 90 * time.Minute},
		},
		Period:      leaderboard.Period{Start: reportTime.Add(-recap.DefaultWindow), End: reportTime, Rolling: true},
		GeneratedAt: reportTime,
	}
}

func withScopes(req *http.Request, scopes ...string) *http.Request {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "tester",
		Scopes:    set,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestPreviewRecapSuccess(t *testing.T) {
	reporter := &stubReporter{report: sampleReport()}
	h := NewHandler(reporter, &stubRunner{})

	req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/recaps/preview?team_name=Team+Rocket&window_hours=48", nil), auth.ScopeRecapsRead)
	rr := serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view ReportView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, "Team Rocket is at 26% of its goal to 1000km!", view.Headline)
	require.NotNil(t, view.PercentComplete)
	require.Equal(t, 26, *view.PercentComplete)
	require.Len(t, view.Leaders, 2)
	require.Equal(t, 2, view.Leaders[1].Rank)
	require.Equal(t, "Bo K", view.Leaders[1].Name)
	require.Len(t, view.CategoryLeaders, 2)
	require.Equal(t, "Biking", view.CategoryLeaders[0].Category)
	require.Equal(t, "1 hours 30 mins", view.CategoryLeaders[0].Duration)
	require.Equal(t, "Last Week Recap:", view.Period.Title)

	require.Len(t, reporter.got, 1)
	require.Equal(t, "Team Rocket", reporter.got[0].Team.Name)
	require.Equal(t, 48*time.Hour, reporter.got[0].Window)
}

func TestPreviewRecapStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing team", "", nil, http.StatusBadRequest},
		{"bad window", "team_id=t-1&window_hours=abc", nil, http.StatusBadRequest},
		{"bad cutoff", "team_id=t-1&cutoff=monthly", nil, http.StatusBadRequest},
		{"no report", "team_id=t-1", recap.ErrTeamNotFound, http.StatusNotFound},
		{"upstream", "team_id=t-1", errors.New("fetch feed: boom"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&stubReporter{err: tc.err, report: sampleReport()}, &stubRunner{})
			req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/recaps/preview?"+tc.query, nil), auth.ScopeRecapsRead)
			rr := serve(h, req)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestPreviewRecapRequiresClaims(t *testing.T) {
	h := NewHandler(&stubReporter{report: sampleReport()}, &stubRunner{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/recaps/preview?team_id=t-1", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/recaps/preview?team_id=t-1", nil), "other:scope")
	rr = serve(h, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTriggerRecap(t *testing.T) {
	runner := &stubRunner{result: recap.Result{RunID: "run-1", Status: recap.StatusSent}}
	h := NewHandler(&stubReporter{}, runner, WithDefaultChannel("#general"))

	body := `{"team_id":"t-1","cutoff_policy":"goal_start"}`
	req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/recaps", strings.NewReader(body)), auth.ScopeRecapsWrite)
	rr := serve(h, req)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var view RunView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, RunView{RunID: "run-1", Status: "sent"}, view)

	require.Len(t, runner.got, 1)
	require.Equal(t, "#general", runner.got[0].Channel)
	require.Equal(t, recap.CutoffGoalStart, runner.got[0].Request.Cutoff)
}

func TestTriggerRecapErrors(t *testing.T) {
	t.Run("read scope is not enough", func(t *testing.T) {
		h := NewHandler(&stubReporter{}, &stubRunner{}, WithDefaultChannel("#general"))
		req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/recaps", strings.NewReader(`{"team_id":"t-1"}`)), auth.ScopeRecapsRead)
		require.Equal(t, http.StatusForbidden, serve(h, req).Code)
	})
	t.Run("no channel", func(t *testing.T) {
		h := NewHandler(&stubReporter{}, &stubRunner{})
		req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/recaps", strings.NewReader(`{"team_id":"t-1"}`)), auth.ScopeRecapsWrite)
		require.Equal(t, http.StatusBadRequest, serve(h, req).Code)
	})
	t.Run("bad body", func(t *testing.T) {
		h := NewHandler(&stubReporter{}, &stubRunner{}, WithDefaultChannel("#general"))
		req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/recaps", strings.NewReader(`{`)), auth.ScopeRecapsWrite)
		require.Equal(t, http.StatusBadRequest, serve(h, req).Code)
	})
	t.Run("notify failure", func(t *testing.T) {
		runner := &stubRunner{result: recap.Result{RunID: "run-2", Status: recap.StatusFailed}, err: errors.New("notify: slack down")}
		h := NewHandler(&stubReporter{}, runner, WithDefaultChannel("#general"))
		req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/recaps", strings.NewReader(`{"team_id":"t-1"}`)), auth.ScopeRecapsWrite)
		require.Equal(t, http.StatusBadGateway, serve(h, req).Code)
	})
	t.Run("method", func(t *testing.T) {
		h := NewHandler(&stubReporter{}, &stubRunner{})
		req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/recaps", nil), auth.ScopeRecapsWrite)
		require.Equal(t, http.StatusMethodNotAllowed, serve(h, req).Code)
	})
}

func TestSubscriptions(t *testing.T) {
	store := &stubStore{subs: []recap.Subscription{{
		ID: "sub-1", TeamName: "Team Rocket", Channel: "#general",
		Cutoff: recap.CutoffRolling, Window: 72 * time.Hour, Enabled: true, CreatedAt: reportTime,
	}}}
	h := NewHandler(&stubReporter{}, &stubRunner{}, WithSubscriptions(store))

	rr := serve(h, withScopes(httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil), auth.ScopeRecapsRead))
	require.Equal(t, http.StatusOK, rr.Code)
	var list ListSubscriptionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, int64(72*3600), list.Items[0].WindowSeconds)

	body := `{"team_id":"t-9","channel":"#runs","window_hours":24}`
	rr = serve(h, withScopes(httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(body)), auth.ScopeRecapsWrite))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, store.created, 1)
	require.True(t, store.created[0].Enabled)
	require.Equal(t, 24*time.Hour, store.created[0].Window)

	both := `{"team_id":"t-9","team_name":"x","channel":"#runs"}`
	rr = serve(h, withScopes(httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(both)), auth.ScopeRecapsWrite))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubscriptionsNotConfigured(t *testing.T) {
	h := NewHandler(&stubReporter{}, &stubRunner{})
	rr := serve(h, withScopes(httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil), auth.ScopeRecapsRead))
	require.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&stubReporter{}, &stubRunner{})
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
