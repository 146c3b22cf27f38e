// internal/auth/outcome.go
package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The terminal state after submission is a race between two independently
// timed UI mutations with no shared completion event: the provider either
// redirects back to the portal (location gains the home marker) or injects
// an error message into the status element. Neither can be waited on alone
// without deadlocking when only the other ever fires, so both are polled in
// the same loop iteration.

type outcomeState int

const (
	statePending outcomeState = iota
	stateSuccess
	stateFailure
)

// observation is the per-tick result of evaluating both race conditions.
type observation struct {
	state   outcomeState
	message string
}

// tagPattern strips embedded markup from the status element, e.g.
// `<i class="fa fa-minus-circle"></i> 用户名或密码错误`.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// awaitOutcome polls until the race resolves: nil on success, AuthError with
// the provider's text on failure, TimeoutError when the ceiling expires, or
// the context error on interrupt.
func (a *Authenticator) awaitOutcome(ctx context.Context, log *zap.Logger) error {
	log.Info("Waiting for login outcome",
		zap.Duration("ceiling", a.pacing.OutcomeWait),
		zap.Duration("interval", a.pacing.OutcomePoll))

	deadline := time.NewTimer(a.pacing.OutcomeWait)
	defer deadline.Stop()
	ticker := time.NewTicker(a.pacing.OutcomePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline.C:
			// The error message sometimes lands just after the ceiling's
			// last tick; check once more before declaring a timeout.
			if obs := a.observeFailure(ctx, log); obs.state == stateFailure {
				log.Error("Login error detected at final check", zap.String("message", obs.message))
				return &AuthError{Message: obs.message}
			}
			loc, _ := a.handle.Location(ctx)
			log.Error("Timed out waiting for login outcome", zap.String("final_url", loc))
			return &TimeoutError{Waited: a.pacing.OutcomeWait}

		case <-ticker.C:
			switch obs := a.observe(ctx, log); obs.state {
			case stateFailure:
				log.Error("Login error detected", zap.String("message", obs.message))
				return &AuthError{Message: obs.message}
			case stateSuccess:
				return nil
			}
		}
	}
}

// observe evaluates both conditions in one pass. Failure is checked first:
// if both could appear, an explicit provider error beats a possibly stale
// success marker.
func (a *Authenticator) observe(ctx context.Context, log *zap.Logger) observation {
	if obs := a.observeFailure(ctx, log); obs.state == stateFailure {
		return obs
	}

	loc, err := a.handle.Location(ctx)
	if err != nil {
		log.Debug("Failed to read location during outcome poll", zap.Error(err))
		return observation{state: statePending}
	}
	if strings.Contains(loc, a.portal.HomeMarker) {
		log.Info("Redirected to authenticated home", zap.String("url", loc))
		return observation{state: stateSuccess}
	}
	return observation{state: statePending}
}

// observeFailure checks the status element for a terminal provider message.
// A missing or hidden element, an empty text, or an allow-listed in-progress
// phrase all count as pending. Read errors are logged and treated as
// pending; the loop's ceiling bounds them.
func (a *Authenticator) observeFailure(ctx context.Context, log *zap.Logger) observation {
	sel := a.portal.Selectors.StatusMessage

	visible, err := a.handle.Visible(ctx, sel)
	if err != nil {
		log.Debug("Failed to check status element visibility", zap.Error(err))
		return observation{state: statePending}
	}
	if !visible {
		return observation{state: statePending}
	}

	raw, err := a.handle.InnerHTML(ctx, sel)
	if err != nil {
		log.Debug("Failed to read status element", zap.Error(err))
		return observation{state: statePending}
	}

	text := cleanStatusText(raw)
	if text == "" || a.isProgressPhrase(text) {
		return observation{state: statePending}
	}
	return observation{
		state:   stateFailure,
		message: truncateMessage(text, maxMessageLen),
	}
}

// cleanStatusText strips HTML tags and surrounding whitespace.
func cleanStatusText(rawHTML string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(rawHTML, ""))
}

// isProgressPhrase reports whether the text is a non-terminal "logging in"
// style status that must never be mistaken for an error, however long it
// persists.
func (a *Authenticator) isProgressPhrase(text string) bool {
	for _, phrase := range a.portal.ProgressPhrases {
		if phrase != "" && strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
