// internal/auth/auth.go

// Package auth drives the PKU course portal's IAAA login flow through an
// automation handle and bridges the resulting browser session into a
// portable HTTP session.
//
// The portal exposes no API. Everything here works against rendered markup:
// the flow navigates to the provider's form, types credentials with
// humanlike pacing, then resolves a race between two independently timed UI
// mutations (a success redirect vs. an inline error message) that share no
// completion event.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/browser"
	"github.com/robin0505/PKU-Get/internal/config"
	"github.com/robin0505/PKU-Get/internal/websession"
)

// CourseRecord is one entry extracted from the authenticated landing page.
type CourseRecord struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

// Authenticator performs one login attempt at a time against a single
// automation handle. It never retries internally; the attempt index only
// selects timeouts.
type Authenticator struct {
	handle  browser.Handle
	surface browser.DisplaySurface // optional, cosmetic
	portal  config.PortalConfig
	pacing  config.PacingConfig
	logger  *zap.Logger
}

// New creates an Authenticator. surface may be nil.
func New(handle browser.Handle, surface browser.DisplaySurface, cfg config.Config, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		handle:  handle,
		surface: surface,
		portal:  cfg.Portal,
		pacing:  cfg.Pacing,
		logger:  logger.Named("auth"),
	}
}

// Login drives one complete login attempt. On success it returns the
// materialized session and the extracted course list (possibly empty; a
// markup change there is not fatal). On failure the session is nil, the
// course list is empty, and the error carries the reason; render it with
// Message. Exactly one of success, provider error, or timeout occurs per
// call, within a bounded total duration.
func (a *Authenticator) Login(ctx context.Context, username, password string, attempt int) (*websession.Session, []CourseRecord, error) {
	log := a.logger.With(zap.Int("attempt", attempt))

	// The display surface is hidden during navigation; restore it exactly
	// once on every exit path, including interrupts.
	defer func() {
		if a.surface != nil {
			log.Debug("Restoring display surface")
			a.surface.Show()
		}
	}()

	start := time.Now()

	if err := a.navigateToProvider(ctx, attempt, log); err != nil {
		return a.fail(log, err)
	}
	if err := a.submitCredentials(ctx, username, password, log); err != nil {
		return a.fail(log, err)
	}
	if err := a.awaitOutcome(ctx, log); err != nil {
		return a.fail(log, err)
	}

	courses := a.extractCourses(ctx, log)

	session, err := websession.Materialize(ctx, a.handle, log)
	if err != nil {
		return a.fail(log, err)
	}

	log.Info("Login succeeded",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("courses", len(courses)))
	return session, courses, nil
}

// fail seals the error into the taxonomy and returns the empty result shape.
func (a *Authenticator) fail(log *zap.Logger, err error) (*websession.Session, []CourseRecord, error) {
	sealed := seal(err)
	log.Error("Login failed", zap.Error(sealed), zap.String("message", Message(sealed)))
	return nil, nil, sealed
}

// sleep is a context-aware pause; every fixed delay in the flow goes through
// it so cancellation is never blocked on a timer.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
