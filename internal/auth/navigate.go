// internal/auth/navigate.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/browser"
)

// navigateToProvider drives the handle from the portal entry URL through the
// "choose login method" page to the IAAA login form.
func (a *Authenticator) navigateToProvider(ctx context.Context, attempt int, log *zap.Logger) error {
	if a.surface != nil {
		log.Debug("Hiding display surface during automated navigation")
		a.surface.Hide()
	}

	log.Info("Opening course portal entry page", zap.String("url", a.portal.EntryURL))
	if err := a.handle.Navigate(ctx, a.portal.EntryURL); err != nil {
		return &NavigationError{Stage: "entry page load", Err: err}
	}

	if err := a.handle.WaitVisible(ctx, "body", a.pacing.EntryWait); err != nil {
		return &NavigationError{Stage: "entry page readiness", Err: err}
	}
	// Settle buffer for slow renderers; the link below appears late.
	if err := sleep(ctx, a.pacing.PageSettle); err != nil {
		return err
	}

	// The link is located by exact visible text. Brittle by design: the
	// portal's markup is unversioned and any rename is supposed to break
	// loudly here rather than misclick elsewhere.
	linkSel := fmt.Sprintf(`//a[normalize-space(.)=%q]`, a.portal.MethodLinkText)

	log.Info("Waiting for login method link", zap.String("text", a.portal.MethodLinkText))
	if err := a.handle.WaitVisible(ctx, linkSel, a.pacing.EntryWait); err != nil {
		return &NavigationError{Stage: "login method link", Err: err}
	}

	if err := browser.ScrollIntoView(ctx, a.handle, linkSel); err != nil {
		log.Warn("Failed to scroll login method link into view", zap.Error(err))
	}
	if err := sleep(ctx, a.pacing.PreClickPause); err != nil {
		return err
	}

	if err := browser.RobustClick(ctx, a.handle, linkSel, log); err != nil {
		return &NavigationError{Stage: "login method link click", Err: err}
	}

	return a.awaitProviderRedirect(ctx, attempt, log)
}

// awaitProviderRedirect polls the current location until it is inside the
// provider's domain. The first attempt gets a short window: the provider's
// redirect usually loses its own timing race on a cold load, and failing
// fast lets the caller retry sooner.
func (a *Authenticator) awaitProviderRedirect(ctx context.Context, attempt int, log *zap.Logger) error {
	waitFor := a.pacing.RedirectWait(attempt)
	deadline := time.Now().Add(waitFor)
	lastProgress := time.Now()

	log.Info("Waiting for redirect to identity provider",
		zap.String("domain", a.portal.ProviderDomain),
		zap.Duration("timeout", waitFor))

	for {
		loc, err := a.handle.Location(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug("Failed to read location while waiting for provider", zap.Error(err))
		} else if strings.Contains(loc, a.portal.ProviderDomain) {
			log.Info("Redirected to identity provider", zap.String("url", loc))
			return nil
		}

		if time.Now().After(deadline) {
			log.Error("Timed out waiting for provider redirect", zap.String("last_url", loc))
			return &RedirectTimeoutError{Domain: a.portal.ProviderDomain, Waited: waitFor}
		}
		if time.Since(lastProgress) > 3*time.Second {
			lastProgress = time.Now()
			log.Info("Still waiting for provider redirect", zap.String("current_url", loc))
		}

		if err := sleep(ctx, a.pacing.RedirectPoll); err != nil {
			return err
		}
	}
}
