// internal/auth/submit.go
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/browser"
)

// submitCredentials fills the provider's form and submits it. Characters go
// in one at a time with per-field delays; the pacing is an anti-bot measure
// the provider is known to be sensitive to, so it must not be collapsed into
// a single SendKeys call.
func (a *Authenticator) submitCredentials(ctx context.Context, username, password string, log *zap.Logger) error {
	log.Info("Waiting for login form")
	if err := sleep(ctx, a.pacing.FormSettle); err != nil {
		return err
	}

	sel := a.portal.Selectors
	if err := a.handle.WaitVisible(ctx, sel.UsernameField, a.pacing.UsernameFieldWait); err != nil {
		return &FormNotFoundError{Control: "username field", Err: err}
	}
	if err := a.handle.WaitVisible(ctx, sel.PasswordField, a.pacing.PasswordFieldWait); err != nil {
		return &FormNotFoundError{Control: "password field", Err: err}
	}
	if err := a.handle.WaitVisible(ctx, sel.SubmitButton, a.pacing.SubmitButtonWait); err != nil {
		return &FormNotFoundError{Control: "submit button", Err: err}
	}

	log.Debug("Login form loaded, filling credentials")

	if err := a.typeSlowly(ctx, sel.UsernameField, username, a.pacing.UsernameKeyDelay); err != nil {
		return err
	}
	// The provider flags back-to-back field entry; pause before the password.
	if err := sleep(ctx, a.pacing.InterFieldPause); err != nil {
		return err
	}
	if err := a.typeSlowly(ctx, sel.PasswordField, password, a.pacing.PasswordKeyDelay); err != nil {
		return err
	}
	if err := sleep(ctx, a.pacing.PreSubmitPause); err != nil {
		return err
	}

	if err := browser.RobustClick(ctx, a.handle, sel.SubmitButton, log); err != nil {
		return err
	}
	log.Debug("Login form submitted")
	return nil
}

// typeSlowly clears the field and sends the text rune by rune with a fixed
// inter-character delay.
func (a *Authenticator) typeSlowly(ctx context.Context, selector, text string, delay time.Duration) error {
	if err := a.handle.Clear(ctx, selector); err != nil {
		return err
	}
	for _, r := range text {
		if err := a.handle.SendKeys(ctx, selector, string(r)); err != nil {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}
