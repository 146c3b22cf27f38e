// internal/browser/cdp/handle.go
package cdp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/browser"
	"github.com/robin0505/PKU-Get/internal/config"
)

// Handle drives a real Chrome/Chromium tab over the DevTools protocol and
// implements browser.Handle.
type Handle struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
}

var _ browser.Handle = (*Handle)(nil)

// New launches a browser and opens a fresh tab. The returned handle must be
// closed by the caller.
func New(parentCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Handle, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parentCtx, opts...)

	ctxOpts := []chromedp.ContextOption{}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, ctxOpts...)

	// Start the browser eagerly so launch failures surface here and not in
	// the middle of a login attempt.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Handle{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger.Named("cdp"),
	}, nil
}

// Close tears the tab and the browser process down.
func (h *Handle) Close() {
	h.cancelTab()
	h.cancelAlloc()
}

// run executes chromedp actions on the tab context while honoring the
// caller's context for cancellation.
func (h *Handle) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(h.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (h *Handle) Navigate(ctx context.Context, url string) error {
	return h.run(ctx, chromedp.Navigate(url))
}

func (h *Handle) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := h.run(waitCtx, chromedp.WaitVisible(selector, queryOpts(selector)...)); err != nil {
		return fmt.Errorf("element %q not visible within %s: %w", selector, timeout, err)
	}
	return nil
}

func (h *Handle) Visible(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(
		`(() => { const el = %s; return el !== null && el.getClientRects().length > 0; })()`,
		lookupExpr(selector))
	var visible bool
	if err := h.run(ctx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (h *Handle) InnerHTML(ctx context.Context, selector string) (string, error) {
	return h.readHTML(ctx, selector, "innerHTML")
}

func (h *Handle) OuterHTML(ctx context.Context, selector string) (string, error) {
	return h.readHTML(ctx, selector, "outerHTML")
}

// readHTML reads element markup via script rather than chromedp's node-based
// actions; those block until the node appears, which would wedge the outcome
// poll loop when an element vanishes between checks.
func (h *Handle) readHTML(ctx context.Context, selector, property string) (string, error) {
	script := fmt.Sprintf(
		`(() => { const el = %s; if (!el) throw new Error("element not found"); return el.%s; })()`,
		lookupExpr(selector), property)
	var out string
	if err := h.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return "", fmt.Errorf("failed to read %s of %q: %w", property, selector, err)
	}
	return out, nil
}

func (h *Handle) Click(ctx context.Context, selector string) error {
	return h.run(ctx, chromedp.Click(selector, append(queryOpts(selector), chromedp.NodeVisible)...))
}

func (h *Handle) Clear(ctx context.Context, selector string) error {
	return h.run(ctx, chromedp.Clear(selector, queryOpts(selector)...))
}

func (h *Handle) SendKeys(ctx context.Context, selector, text string) error {
	return h.run(ctx, chromedp.SendKeys(selector, text, queryOpts(selector)...))
}

func (h *Handle) Location(ctx context.Context) (string, error) {
	var loc string
	if err := h.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (h *Handle) Evaluate(ctx context.Context, script string, res any) error {
	return h.run(ctx, chromedp.Evaluate(script, res))
}

func (h *Handle) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	var raw []*network.Cookie
	err := h.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]browser.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := browser.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		// Expires <= 0 means a session cookie.
		if c.Expires > 0 {
			sec := int64(c.Expires)
			nsec := int64((c.Expires - float64(sec)) * float64(time.Second))
			cookie.Expires = time.Unix(sec, nsec)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (h *Handle) UserAgent(ctx context.Context) (string, error) {
	var ua string
	if err := h.run(ctx, chromedp.Evaluate(`navigator.userAgent`, &ua)); err != nil {
		return "", fmt.Errorf("failed to read user agent: %w", err)
	}
	return ua, nil
}

// queryOpts picks the chromedp query strategy for a selector. XPath
// selectors (used for locating links by visible text) need BySearch.
func queryOpts(selector string) []chromedp.QueryOption {
	if strings.HasPrefix(selector, "//") {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// lookupExpr builds a JS expression locating an element for script-based
// reads, accepting both CSS and XPath selectors.
func lookupExpr(selector string) string {
	if strings.HasPrefix(selector, "//") {
		return fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			selector)
	}
	return fmt.Sprintf(`document.querySelector(%q)`, selector)
}

// combineContext derives a context from the tab context (which carries the
// chromedp session values) that is also canceled when the caller's context
// is done.
func combineContext(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)

	go func() {
		select {
		case <-callerCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
