// Package recap assembles team challenge recaps from the upstream challenge
// API and hands them to notification sinks.
package recap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

// MaxOverallLeaders is the number of top members shown on the overall
// leaderboard and excluded from category honours.
const MaxOverallLeaders = 3

// Source is the upstream challenge API.
type Source interface {
	Teams(ctx context.Context, userID string) ([]leaderboard.Team, error)
	Goal(ctx context.Context, teamID string) (leaderboard.Goal, error)
	Leaderboard(ctx context.Context, teamID string) ([]leaderboard.Member, error)
	Feed(ctx context.Context, teamID string) ([]leaderboard.Activity, error)
}

// TeamSelector identifies the team to report on, either by id or by name.
type TeamSelector struct {
	ID   string
	Name string
}

func (s TeamSelector) String() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name
}

// Request describes one recap build.
type Request struct {
	Team   TeamSelector
	Cutoff CutoffPolicy
	Window time.Duration
}

// Validate checks that exactly one team selector is set and the policy is known.
func (r Request) Validate() error {
	id, name := strings.TrimSpace(r.Team.ID), strings.TrimSpace(r.Team.Name)
	switch {
	case id == "" && name == "":
		return fmt.Errorf("%w: team id or name required", ErrInvalidRequest)
	case id != "" && name != "":
		return fmt.Errorf("%w: team id and name are mutually exclusive", ErrInvalidRequest)
	}
	if _, err := ParseCutoffPolicy(string(r.Cutoff)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Window < 0 {
		return fmt.Errorf("%w: negative window", ErrInvalidRequest)
	}
	return nil
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger overrides the builder logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock overrides the time source used for rolling windows.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithAggregator overrides the category aggregator.
func WithAggregator(agg *leaderboard.Aggregator) Option {
	return func(b *Builder) {
		b.aggregator = agg
	}
}

// WithUserID sets the credential user whose team list is searched.
func WithUserID(userID string) Option {
	return func(b *Builder) {
		b.userID = userID
	}
}

// WithDefaults sets the cutoff policy and rolling window applied to requests
// that leave them unset.
func WithDefaults(policy CutoffPolicy, window time.Duration) Option {
	return func(b *Builder) {
		if policy != "" {
			b.defaultCutoff = policy
		}
		if window > 0 {
			b.defaultWindow = window
		}
	}
}

// Builder produces recap reports. It holds no per-build state, so concurrent
// builds are safe when the Source is.
type Builder struct {
	source     Source
	aggregator *leaderboard.Aggregator
	userID     string
	logger     *zap.Logger
	now        func() time.Time

	defaultCutoff CutoffPolicy
	defaultWindow time.Duration
}

// NewBuilder constructs a Builder over source.
func NewBuilder(source Source, opts ...Option) *Builder {
	b := &Builder{
		source:        source,
		logger:        zap.NewNop(),
		now:           time.Now,
		defaultCutoff: CutoffRolling,
		defaultWindow: DefaultWindow,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.aggregator == nil {
		b.aggregator = leaderboard.NewAggregator(nil, leaderboard.Normalizer{})
	}
	return b
}

// Build fetches the team's goal, leaderboard and feed and assembles a report.
// Configuration misses return an error matching ErrNoReport.
func (b *Builder) Build(ctx context.Context, req Request) (*leaderboard.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Team.ID = strings.TrimSpace(req.Team.ID)
	req.Team.Name = strings.TrimSpace(req.Team.Name)
	// teams are listed per user, so a name cannot be resolved without one
	if req.Team.ID == "" && b.userID == "" {
		return nil, fmt.Errorf("%w: team name lookup requires a user id", ErrInvalidRequest)
	}
	policy := b.defaultCutoff
	if req.Cutoff != "" {
		policy, _ = ParseCutoffPolicy(string(req.Cutoff))
	}
	window := req.Window
	if window == 0 {
		window = b.defaultWindow
	}
	logger := b.logger.With(zap.String("team", req.Team.String()))

	var (
		team    leaderboard.Team
		members []leaderboard.Member
		err     error
	)
	if req.Team.ID != "" {
		team, members, err = b.resolveByID(ctx, logger, req.Team.ID)
	} else {
		team, err = b.resolveByName(ctx, logger, req.Team.Name)
	}
	if err != nil {
		return nil, err
	}

	goal, err := b.source.Goal(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch goal: %w", err)
	}

	if members == nil {
		members, err = b.source.Leaderboard(ctx, team.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch leaderboard: %w", err)
		}
	}

	feed, err := b.source.Feed(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	now := b.now()
	cutoff := cutoffTime(policy, window, goal.StartDate, now)
	recent := make([]leaderboard.Activity, 0, len(feed))
	for _, act := range feed {
		if act.CompletedAt.After(cutoff) {
			recent = append(recent, act)
		}
	}

	leaders := members[:min(MaxOverallLeaders, len(members))]
	excluded := make(map[string]struct{}, len(leaders))
	for _, m := range leaders {
		excluded[m.ID] = struct{}{}
	}

	categoryLeaders := b.aggregator.Aggregate(recent, excluded)
	logger.Debug("recap built",
		zap.Int("members", len(members)),
		zap.Int("feed", len(feed)),
		zap.Int("in_window", len(recent)),
		zap.Int("categories", len(categoryLeaders)),
	)

	return &leaderboard.Report{
		TeamID:          team.ID,
		TeamName:        team.Name,
		GoalDistance:    goal.Distance,
		Progress:        goal.Progress,
		Leaders:         append([]leaderboard.Member(nil), leaders...),
		CategoryLeaders: categoryLeaders,
		Period: leaderboard.Period{
			Start:   cutoff,
			End:     now,
			Rolling: policy != CutoffGoalStart,
		},
		GeneratedAt: now,
	}, nil
}

// resolveByID follows the leaderboard-first lookup: the team list is only
// reachable through a member id, so an empty leaderboard ends the build.
func (b *Builder) resolveByID(ctx context.Context, logger *zap.Logger, teamID string) (leaderboard.Team, []leaderboard.Member, error) {
	members, err := b.source.Leaderboard(ctx, teamID)
	if err != nil {
		return leaderboard.Team{}, nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	if len(members) == 0 {
		logger.Error("team has no members")
		return leaderboard.Team{}, nil, fmt.Errorf("team %s: %w", teamID, ErrNoMembers)
	}

	userID := b.userID
	if userID == "" {
		userID = members[0].ID
	}
	teams, err := b.source.Teams(ctx, userID)
	if err != nil {
		return leaderboard.Team{}, nil, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range teams {
		if t.ID == teamID {
			return t, members, nil
		}
	}
	logger.Warn("team not found in team list", zap.String("user_id", userID), zap.Int("teams", len(teams)))
	return leaderboard.Team{}, nil, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
}

func (b *Builder) resolveByName(ctx context.Context, logger *zap.Logger, name string) (leaderboard.Team, error) {
	teams, err := b.source.Teams(ctx, b.userID)
	if err != nil {
		return leaderboard.Team{}, fmt.Errorf("list teams: %w", err)
	}

	fold := cases.Fold()
	want := fold.String(name)
	for _, t := range teams {
		if fold.String(strings.TrimSpace(t.Name)) == want {
			return t, nil
		}
	}
	logger.Warn("no team matches name", zap.String("user_id", b.userID), zap.Int("teams", len(teams)))
	return leaderboard.Team{}, fmt.Errorf("team %q: %w", name, ErrTeamNotFound)
}
