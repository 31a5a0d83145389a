// Package ingest drives one fetch -> parse -> filter -> notify -> commit
// cycle against the dashboard.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jonathan/nps-watcher/internal/notify"
	"github.com/jonathan/nps-watcher/internal/parsing"
	"github.com/jonathan/nps-watcher/internal/types"
)

// Fetcher returns the text lines of the dashboard page. A fetch blocked by an
// authentication redirect returns types.ErrAuthRejected; a page with no
// content returns an empty slice.
type Fetcher interface {
	FetchLines(ctx context.Context) ([]string, error)
}

// Authenticator establishes a fresh session and persists its artifact.
type Authenticator interface {
	Login(ctx context.Context) error
}

// Sessions tracks the persisted session artifact.
type Sessions interface {
	Exists() bool
	Discard() error
}

// Ledger is the durable record of previously relayed comments.
type Ledger interface {
	LoadSeen(ctx context.Context) (map[types.Identity]struct{}, error)
	Append(ctx context.Context, comments []types.Comment) error
}

// Notifier delivers one formatted notification.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// Alerter delivers plain-text operational alerts, best-effort.
type Alerter interface {
	Send(ctx context.Context, message string) error
}

// authRetryBudget bounds re-authentication attempts within one cycle.
const authRetryBudget = 1

// Service runs ingestion cycles. The system runs one cycle at a time; the
// ledger itself guards against overlapping invocations.
type Service struct {
	fetcher  Fetcher
	auth     Authenticator
	sessions Sessions
	ledger   Ledger
	notifier Notifier
	alerts   Alerter
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewService wires an orchestrator. dispatchInterval paces outbound
// notifications as a courtesy to the webhook endpoint.
func NewService(fetcher Fetcher, auth Authenticator, sessions Sessions, ledger Ledger, notifier Notifier, alerts Alerter, dispatchInterval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		auth:     auth,
		sessions: sessions,
		ledger:   ledger,
		notifier: notifier,
		alerts:   alerts,
		limiter:  rate.NewLimiter(rate.Every(dispatchInterval), 1),
		log:      log,
	}
}

// RunOnce performs one full cycle. A missing or rejected session is
// re-established at most once; a second rejection ends the cycle with an
// operational alert instead of looping. Transient fetch failures end the
// cycle normally with nothing to do. Ledger failures are returned: silently
// proceeding risks duplicate notifications.
func (s *Service) RunOnce(ctx context.Context) error {
	log := s.log.With().Str("run_id", uuid.NewString()).Logger()

	for attempt := 0; ; attempt++ {
		if !s.sessions.Exists() {
			log.Warn().Msg("no session artifact, signing in")
			if err := s.auth.Login(ctx); err != nil {
				log.Error().Err(err).Msg("sign-in failed")
				s.alert(ctx, log, fmt.Sprintf("🚨 LOGIN NEEDED: %v", err))
				return nil
			}
		}

		lines, err := s.fetcher.FetchLines(ctx)
		if errors.Is(err, types.ErrAuthRejected) {
			log.Warn().Int("attempt", attempt).Msg("auth rejected by dashboard, discarding session")
			if derr := s.sessions.Discard(); derr != nil {
				return fmt.Errorf("discard session artifact: %w", derr)
			}
			if attempt >= authRetryBudget {
				s.alert(ctx, log, "🚨 LOGIN NEEDED: dashboard rejected a fresh session")
				return nil
			}
			continue
		}
		if err != nil {
			log.Error().Err(err).Msg("fetch failed, nothing to ingest")
			return nil
		}
		return s.process(ctx, log, lines)
	}
}

func (s *Service) process(ctx context.Context, log zerolog.Logger, lines []string) error {
	if len(lines) == 0 {
		log.Info().Msg("no text lines found")
		return nil
	}

	comments := parsing.Parse(lines)

	seen, err := s.ledger.LoadSeen(ctx)
	if err != nil {
		return fmt.Errorf("load seen comments: %w", err)
	}

	fresh := make([]types.Comment, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.Identity()]; !ok {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		log.Info().Int("parsed", len(comments)).Msg("no new comments")
		return nil
	}

	log.Info().Int("new", len(fresh)).Int("parsed", len(comments)).Msg("posting new comments")
	for _, c := range fresh {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for dispatch slot: %w", err)
		}
		if err := s.notifier.Send(ctx, notify.Format(c)); err != nil {
			// Per-record best effort: siblings still go out, the commit still happens.
			log.Error().Err(err).Str("store", c.Store).Str("timestamp", c.Timestamp).Msg("post failed")
			continue
		}
		log.Info().Str("store", c.Store).Str("timestamp", c.Timestamp).Msg("posted comment")
	}

	if err := s.ledger.Append(ctx, fresh); err != nil {
		return fmt.Errorf("commit new comments: %w", err)
	}
	log.Info().Msg("cycle complete")
	return nil
}

func (s *Service) alert(ctx context.Context, log zerolog.Logger, message string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Send(ctx, message); err != nil {
		log.Error().Err(err).Msg("alert failed")
		return
	}
	log.Info().Msg("alert sent")
}
