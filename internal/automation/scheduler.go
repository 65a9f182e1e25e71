// Package automation runs the background scheduler: every interval it walks
// all known users and runs their enabled workflows. One user's failure never
// touches another user's pass.
package automation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/oshaani/workspace-employee/internal/credentials"
	"github.com/oshaani/workspace-employee/internal/workflow"
)

// startupDelay gives the HTTP server a moment to come up before the first
// pass hits the Google APIs.
const startupDelay = 10 * time.Second

// CredentialSource lists known users and loads their credentials.
type CredentialSource interface {
	ListKnownUsers() []string
	Load(ctx context.Context, userID string) (credentials.Credential, bool, error)
}

// SettingsSource reads the per-user settings the scheduler gates on.
type SettingsSource interface {
	AutomationEnabled(ctx context.Context, userID string) bool
	WorkflowToggles(ctx context.Context, userID string) map[string]bool
	AgentAPIKey(ctx context.Context, userID string) string
}

// Runner is one user's workflow surface for a scheduled pass.
type Runner interface {
	RunAll(ctx context.Context, toggles map[string]bool) *workflow.AllResult
	RunChatAutoReply(ctx context.Context, spaceName string, replyToLatest int) (*workflow.ChatAutoReplyResult, error)
	DirectMessageSpaces(ctx context.Context, max int) ([]string, error)
}

// RunnerFactory builds a Runner bound to one user's credential and agent
// key. agentKey is the user's override, or empty for the configured default.
type RunnerFactory func(ctx context.Context, userID string, cred credentials.Credential, agentKey string) (Runner, error)

// Config holds the scheduler knobs.
type Config struct {
	Interval             time.Duration
	ChatAutoReplyEnabled bool // global kill switch, ANDed with the user toggle
	ChatSpacesMax        int  // DM spaces per user per pass
}

// Summary is the outcome of one full pass.
type Summary struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

// Scheduler runs automation passes on a fixed interval.
type Scheduler struct {
	cfg       Config
	creds     CredentialSource
	settings  SettingsSource
	newRunner RunnerFactory

	passMu sync.Mutex // held for the duration of a pass; TryLock skips overlaps
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewScheduler(cfg Config, creds CredentialSource, settings SettingsSource, newRunner RunnerFactory) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.ChatSpacesMax <= 0 {
		cfg.ChatSpacesMax = 3
	}
	return &Scheduler{
		cfg:       cfg,
		creds:     creds,
		settings:  settings,
		newRunner: newRunner,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background loop: one pass shortly after startup, then
// one per interval.
func (s *Scheduler) Start() {
	log.Printf("🔄 Automation scheduler started (interval %s)", s.cfg.Interval)
	go s.loop()
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	startup := time.NewTimer(startupDelay)
	defer startup.Stop()

	for {
		select {
		case <-startup.C:
			s.runPass()
		case <-ticker.C:
			s.runPass()
		case <-s.stop:
			return
		}
	}
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	log.Printf("🔄 Automation scheduler stopped")
}

func (s *Scheduler) runPass() {
	if !s.passMu.TryLock() {
		log.Printf("⚠️ Automation pass still running, skipping this tick")
		return
	}
	defer s.passMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()

	summary := s.runOnce(ctx)
	log.Printf("✅ Automation pass done: %d processed, %d skipped, %d failed",
		summary.Processed, summary.Skipped, summary.Failed)
}

// RunOnce walks every known user once. Exposed for the manual trigger
// endpoint; the background loop serializes with it through the pass lock.
func (s *Scheduler) RunOnce(ctx context.Context) Summary {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) Summary {
	var summary Summary
	users := s.creds.ListKnownUsers()
	log.Printf("🔄 Automation pass: %d known user(s)", len(users))

	for _, userID := range users {
		switch s.processUser(ctx, userID) {
		case userProcessed:
			summary.Processed++
		case userSkipped:
			summary.Skipped++
		default:
			summary.Failed++
			summary.Failures = append(summary.Failures, userID)
		}
	}
	return summary
}

type userOutcome int

const (
	userProcessed userOutcome = iota
	userSkipped
	userFailed
)

// processUser runs one user's pass. A panic anywhere in the user's workflows
// is contained here so the walk continues with the next user.
func (s *Scheduler) processUser(ctx context.Context, userID string) (outcome userOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Automation for %s panicked: %v", userID, r)
			outcome = userFailed
		}
	}()

	if !s.settings.AutomationEnabled(ctx, userID) {
		log.Printf("⏭️ Automation disabled for %s, skipping", userID)
		return userSkipped
	}

	cred, ok, err := s.creds.Load(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Automation for %s: credential load failed: %v", userID, err)
		return userFailed
	}
	if !ok {
		log.Printf("⏭️ No usable credential for %s, skipping", userID)
		return userSkipped
	}

	toggles := s.settings.WorkflowToggles(ctx, userID)
	runner, err := s.newRunner(ctx, userID, cred, s.settings.AgentAPIKey(ctx, userID))
	if err != nil {
		log.Printf("⚠️ Automation for %s: runner setup failed: %v", userID, err)
		return userFailed
	}

	result := runner.RunAll(ctx, toggles)
	for _, e := range result.Errors {
		log.Printf("⚠️ Automation for %s: %s", userID, e)
	}

	if s.cfg.ChatAutoReplyEnabled && toggles[workflow.ChatAutoReply] {
		s.autoReplyPass(ctx, userID, runner)
	}

	if len(result.Errors) > 0 && len(result.Workflows) == 0 {
		return userFailed
	}
	return userProcessed
}

func (s *Scheduler) autoReplyPass(ctx context.Context, userID string, runner Runner) {
	spaces, err := runner.DirectMessageSpaces(ctx, s.cfg.ChatSpacesMax)
	if err != nil {
		log.Printf("⚠️ Auto-reply for %s: listing DM spaces failed: %v", userID, err)
		return
	}
	for _, space := range spaces {
		result, err := runner.RunChatAutoReply(ctx, space, 1)
		if err != nil {
			log.Printf("⚠️ Auto-reply for %s in %s failed: %v", userID, space, err)
			continue
		}
		if result.Status == "completed" && len(result.Replies) > 0 {
			log.Printf("✅ Auto-reply for %s: %d message(s) answered in %s", userID, len(result.Replies), space)
		}
	}
}
