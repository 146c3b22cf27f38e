// internal/browser/click.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RobustClick attempts a native click and falls back to a script-invoked
// click when the native one is intercepted or otherwise fails. The portal
// overlays elements at the worst moments, so every click in the login flow
// goes through here rather than duplicating the fallback at each call site.
func RobustClick(ctx context.Context, h Handle, selector string, logger *zap.Logger) error {
	if err := h.Click(ctx, selector); err == nil {
		return nil
	} else if ctx.Err() != nil {
		return ctx.Err()
	} else {
		logger.Warn("Native click failed, using script click fallback",
			zap.String("selector", selector), zap.Error(err))
	}

	if err := h.Evaluate(ctx, scriptClick(selector), nil); err != nil {
		return fmt.Errorf("script click fallback failed for %q: %w", selector, err)
	}
	return nil
}

// ScrollIntoView scrolls the element into the viewport. Failures are
// reported but are rarely fatal to the caller.
func ScrollIntoView(ctx context.Context, h Handle, selector string) error {
	script := fmt.Sprintf(
		`(() => { const el = %s; if (el) el.scrollIntoView(true); return el !== null; })()`,
		lookupExpr(selector))
	return h.Evaluate(ctx, script, nil)
}

func scriptClick(selector string) string {
	return fmt.Sprintf(
		`(() => { const el = %s; if (!el) throw new Error("element not found"); el.click(); return true; })()`,
		lookupExpr(selector))
}

// lookupExpr builds the JS expression locating an element for the script
// fallbacks, accepting both CSS and XPath selectors.
func lookupExpr(selector string) string {
	if strings.HasPrefix(selector, "//") {
		return fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			selector)
	}
	return fmt.Sprintf(`document.querySelector(%q)`, selector)
}
