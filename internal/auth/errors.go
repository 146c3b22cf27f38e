// internal/auth/errors.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxMessageLen bounds every caller-facing message derived from browser or
// provider text.
const maxMessageLen = 100

// NavigationError reports that the entry page or the login-method link never
// became reachable or interactable.
type NavigationError struct {
	Stage string
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed at %s: %v", e.Stage, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// RedirectTimeoutError reports that the identity provider's domain was never
// reached after clicking the login-method link.
type RedirectTimeoutError struct {
	Domain string
	Waited time.Duration
}

func (e *RedirectTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for redirect to %s", e.Waited, e.Domain)
}

// FormNotFoundError reports that a credential form control never became
// visible within its wait budget.
type FormNotFoundError struct {
	Control string
	Err     error
}

func (e *FormNotFoundError) Error() string {
	return fmt.Sprintf("login form %s not found: %v", e.Control, e.Err)
}

func (e *FormNotFoundError) Unwrap() error { return e.Err }

// AuthError carries the provider's own rejection text. The provider's
// message set is open-ended UI text (bad credentials, empty fields, expired
// one-time codes, deactivated accounts, ...), so the payload stays an opaque
// truncated string rather than a closed enum.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// TimeoutError reports that neither the success marker nor a provider error
// message appeared before the outcome ceiling.
type TimeoutError struct {
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for login outcome", e.Waited)
}

// AutomationFault wraps any other failure surfaced by the automation layer.
type AutomationFault struct {
	Err error
}

func (e *AutomationFault) Error() string {
	return fmt.Sprintf("automation fault: %v", e.Err)
}

func (e *AutomationFault) Unwrap() error { return e.Err }

// seal funnels an arbitrary error into the login taxonomy. Context
// cancellation passes through untouched so an external interrupt stays
// distinguishable from an authentication failure.
func seal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		navErr      *NavigationError
		redirectErr *RedirectTimeoutError
		formErr     *FormNotFoundError
		authErr     *AuthError
		timeoutErr  *TimeoutError
		faultErr    *AutomationFault
	)
	switch {
	case errors.As(err, &navErr),
		errors.As(err, &redirectErr),
		errors.As(err, &formErr),
		errors.As(err, &authErr),
		errors.As(err, &timeoutErr),
		errors.As(err, &faultErr):
		return err
	}
	return &AutomationFault{Err: err}
}

// Message renders the caller-facing string for a login error: the provider's
// own message, a timeout notice, or a generic automation-failure notice
// truncated to a bounded length.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}

	var (
		redirectErr *RedirectTimeoutError
		timeoutErr  *TimeoutError
	)
	if errors.As(err, &redirectErr) || errors.As(err, &timeoutErr) {
		return "登录超时，请检查网络连接"
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "登录已中断"
	}

	var (
		navErr   *NavigationError
		formErr  *FormNotFoundError
		faultErr *AutomationFault
	)
	if errors.As(err, &navErr) || errors.As(err, &formErr) || errors.As(err, &faultErr) {
		return "浏览器错误: " + truncateMessage(err.Error(), maxMessageLen)
	}

	return "未知错误: " + truncateMessage(err.Error(), maxMessageLen)
}

// truncateMessage bounds a string to n runes.
func truncateMessage(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
