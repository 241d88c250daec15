// services/engine.go - Background achievement engine
//
// One long-lived loop: refresh the series index when stale, evaluate every
// user against the full rule set, record new awards, notify. Cycles never
// overlap and nothing in a cycle is fatal; a failed fetch degrades the
// evaluators that needed it and everything else carries on.
package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"shelfquest/abstats"
	"shelfquest/config"
	"shelfquest/evaluator"
	"shelfquest/metrics"
	"shelfquest/models"
	"shelfquest/notifier"
	"shelfquest/store"
)

// StatsProvider is everything the engine needs from the stats server.
type StatsProvider interface {
	GetCompleted(completedEndpoint string) ([]models.UserSnapshot, error)
	GetPlaylistFallbackFinished() ([]models.UserSnapshot, error)
	GetListeningSessions() (*abstats.SessionsPayload, error)
	GetSeriesIndex() ([]abstats.Series, error)
	GetItem(itemID string) (*abstats.Item, error)
	GetSeries(seriesID string) (*abstats.SeriesDetail, error)
}

// Engine evaluates the achievement catalog on a fixed cadence.
type Engine struct {
	cfg      *config.Settings
	provider StatsProvider
	ledger   store.Ledger
	discord  *notifier.DiscordNotifier
	email    *notifier.EmailNotifier

	rules     []models.Achievement
	rulesByID map[string]*models.Achievement
	loc       *time.Location

	seriesIndex       []abstats.Series
	lastSeriesRefresh int64

	stop chan struct{}
}

var engine *Engine

// InitEngine initializes the singleton engine service.
func InitEngine(cfg *config.Settings, provider StatsProvider, ledger store.Ledger, discord *notifier.DiscordNotifier, email *notifier.EmailNotifier, rules []models.Achievement) *Engine {
	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		log.Printf("Invalid STREAK_TIMEZONE %q, falling back to UTC: %v", cfg.StreakTimezone, err)
		loc = time.UTC
	}

	rulesByID := make(map[string]*models.Achievement, len(rules))
	for i := range rules {
		rulesByID[rules[i].ID] = &rules[i]
	}

	engine = &Engine{
		cfg:       cfg,
		provider:  provider,
		ledger:    ledger,
		discord:   discord,
		email:     email,
		rules:     rules,
		rulesByID: rulesByID,
		loc:       loc,
		stop:      make(chan struct{}),
	}
	return engine
}

// GetEngine returns the initialized engine service.
func GetEngine() *Engine {
	return engine
}

// Start launches the background loop.
func (e *Engine) Start() {
	go e.loop()
}

// Stop signals the loop to exit after the current cycle.
func (e *Engine) Stop() {
	close(e.stop)
}

func (e *Engine) loop() {
	log.Println("✅ Background achievement engine started")

	for {
		e.refreshSeriesIndex()
		e.RunOnce()

		select {
		case <-e.stop:
			log.Println("Achievement engine stopped")
			return
		case <-time.After(time.Duration(e.cfg.PollSeconds) * time.Second):
		}
	}
}

// refreshSeriesIndex re-fetches the slow-changing series index when stale.
// A failed refresh keeps the previous index.
func (e *Engine) refreshSeriesIndex() {
	now := time.Now().Unix()
	if e.seriesIndex != nil && now-e.lastSeriesRefresh < int64(e.cfg.SeriesRefreshSeconds) {
		return
	}

	index, err := e.provider.GetSeriesIndex()
	if err != nil {
		log.Printf("Series refresh failed: %v", err)
		metrics.FetchFailures.WithLabelValues("series_index").Inc()
		return
	}
	e.seriesIndex = index
	e.lastSeriesRefresh = now
}

// RunOnce performs one full evaluation cycle over all users.
func (e *Engine) RunOnce() {
	runID := uuid.NewString()[:8]
	started := time.Now()
	defer func() {
		metrics.CyclesTotal.Inc()
		metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}()

	snapshots, err := e.provider.GetCompleted(e.cfg.CompletedEndpoint)
	if err != nil {
		log.Printf("[%s] Failed to fetch completions: %v", runID, err)
		metrics.FetchFailures.WithLabelValues("completed").Inc()
		if !e.cfg.AllowPlaylistFallback {
			return
		}
		snapshots, err = e.provider.GetPlaylistFallbackFinished()
		if err != nil {
			log.Printf("[%s] Playlist fallback failed too: %v", runID, err)
			metrics.FetchFailures.WithLabelValues("playlists").Inc()
			return
		}
	}
	if len(snapshots) == 0 {
		return
	}

	sessions, err := e.provider.GetListeningSessions()
	if err != nil {
		log.Printf("[%s] Failed to fetch listening sessions (duration/behavior awards skipped this cycle): %v", runID, err)
		metrics.FetchFailures.WithLabelValues("sessions").Inc()
		sessions = nil
	}

	ctx := evaluator.NewContext(e.provider, e.provider)

	for i := range snapshots {
		e.evaluateUser(runID, &snapshots[i], snapshots, sessions, ctx)
	}
}

// evaluateUser runs every evaluator for one user, filters against the
// ledger, persists the remainder, and notifies. A panic in any single
// evaluator skips only that evaluator.
func (e *Engine) evaluateUser(runID string, snap *models.UserSnapshot, allUsers []models.UserSnapshot, sessions *abstats.SessionsPayload, ctx *evaluator.Context) {
	var events []evaluator.Event

	events = append(events, e.collect("milestone", func() []evaluator.Event {
		return evaluator.Milestones(snap, e.rules, e.seriesIndex)
	})...)
	events = append(events, e.collect("social", func() []evaluator.Event {
		return evaluator.Social(snap, e.rules, allUsers, 1, ctx)
	})...)

	if sessions != nil {
		events = append(events, e.collect("duration", func() []evaluator.Event {
			return evaluator.Duration(snap, e.rules, sessions)
		})...)
		events = append(events, e.collect("milestone_time", func() []evaluator.Event {
			return evaluator.MilestoneTime(snap, e.rules, sessions)
		})...)
	}

	events = append(events, e.collect("title_keyword", func() []evaluator.Event {
		return evaluator.TitleKeyword(snap, e.rules, ctx)
	})...)
	events = append(events, e.collect("author", func() []evaluator.Event {
		return evaluator.Author(snap, e.rules, e.seriesIndex, ctx)
	})...)
	events = append(events, e.collect("narrator", func() []evaluator.Event {
		return evaluator.Narrator(snap, e.rules, ctx)
	})...)

	if sessions != nil {
		events = append(events, e.collect("behavior_time", func() []evaluator.Event {
			return evaluator.BehaviorTime(snap, e.rules, sessions, e.loc)
		})...)
		events = append(events, e.collect("behavior_session", func() []evaluator.Event {
			return evaluator.BehaviorSession(snap, e.rules, sessions, e.loc)
		})...)
		events = append(events, e.collect("behavior_streak", func() []evaluator.Event {
			return evaluator.BehaviorStreak(snap, e.rules, sessions, e.loc)
		})...)
	}

	events = append(events, e.collect("series_shape", func() []evaluator.Event {
		return evaluator.SeriesShape(snap, e.rules, e.seriesIndex, ctx)
	})...)
	events = append(events, e.collect("yearly", func() []evaluator.Event {
		return evaluator.Yearly(snap, e.rules, e.loc)
	})...)

	// meta counts awards recorded strictly before this cycle's inserts
	priorCount := e.ledger.CountForUser(snap.UserID)
	events = append(events, e.collect("meta", func() []evaluator.Event {
		return evaluator.Meta(snap, e.rules, priorCount)
	})...)

	if len(events) == 0 {
		return
	}

	var candidates []store.Candidate
	for _, ev := range events {
		if ev.Rule.ID == "" {
			continue
		}
		if e.ledger.IsAwarded(snap.UserID, ev.Rule.ID) {
			continue
		}
		candidates = append(candidates, store.Candidate{
			AchievementID: ev.Rule.ID,
			Evidence:      ev.Evidence,
		})
	}
	if len(candidates) == 0 {
		return
	}

	insertedIDs := e.ledger.RecordAwards(snap.UserID, candidates)
	if len(insertedIDs) == 0 {
		return
	}
	metrics.AwardsInserted.Add(float64(len(insertedIDs)))
	log.Printf("[%s] Awarded %d new achievements to %s", runID, len(insertedIDs), snap.UserID)

	e.notify(snap, insertedIDs, candidates)
}

func (e *Engine) notify(snap *models.UserSnapshot, insertedIDs []string, candidates []store.Candidate) {
	username := snap.Username
	if username == "" {
		username = snap.UserID
	}

	inserted := make(map[string]bool, len(insertedIDs))
	for _, id := range insertedIDs {
		inserted[id] = true
	}

	var awards []models.Achievement
	var payloads []models.Evidence
	for _, cand := range candidates {
		if !inserted[cand.AchievementID] {
			continue
		}
		if rule, ok := e.rulesByID[cand.AchievementID]; ok {
			awards = append(awards, *rule)
			payloads = append(payloads, cand.Evidence)
		}
	}
	if len(awards) == 0 {
		return
	}

	if e.discord != nil && e.discord.Enabled() {
		e.discord.SendAwards(username, awards, payloads)
	}

	if e.email != nil && e.email.Enabled() {
		toAddr := config.UserEmails()[username]
		if toAddr == "" {
			toAddr = e.cfg.SMTPToOverride
		}
		if toAddr == "" {
			toAddr = snap.Email
		}
		if toAddr == "" {
			log.Printf("Email skipped: no address for user %s (%s)", username, snap.UserID)
			return
		}
		if err := e.email.SendAwards(toAddr, username, awards); err != nil {
			log.Printf("Email failed: %v", err)
		}
	}
}

// collect invokes one evaluator, converting a panic into a skipped
// evaluator instead of a lost cycle.
func (e *Engine) collect(name string, fn func() []evaluator.Event) (events []evaluator.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Evaluator %s panicked, skipping: %v", name, r)
			metrics.EvaluatorFailures.WithLabelValues(name).Inc()
			events = nil
		}
	}()
	events = fn()
	metrics.EventsEmitted.WithLabelValues(name).Add(float64(len(events)))
	return events
}
