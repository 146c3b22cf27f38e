// internal/auth/handle_fake_test.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robin0505/PKU-Get/internal/browser"
)

// fakeHandle is a scriptable browser.Handle. State transitions are driven by
// call counts so the outcome race can be exercised deterministically.
type fakeHandle struct {
	mu sync.Mutex

	// Location returns locSeq[i] for the i-th call, repeating the last
	// element once the sequence is exhausted.
	locSeq   []string
	locCalls int
	locErr   error

	// visibleFrom[sel] = n makes the selector visible from the n-th
	// Visible call (1-based). Selectors absent from the map are invisible.
	visibleFrom  map[string]int
	visibleCalls map[string]int

	innerHTML map[string]string
	outerHTML map[string]string

	waitErr  map[string]error
	waited   []string
	clickErr map[string]error
	clicked  []string
	evals    []string
	typed    map[string][]string
	cleared  []string
	navs     []string

	cookies    []browser.Cookie
	cookiesErr error
	userAgent  string
}

var _ browser.Handle = (*fakeHandle)(nil)

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		visibleFrom:  make(map[string]int),
		visibleCalls: make(map[string]int),
		innerHTML:    make(map[string]string),
		outerHTML:    make(map[string]string),
		waitErr:      make(map[string]error),
		clickErr:     make(map[string]error),
		typed:        make(map[string][]string),
		userAgent:    "Mozilla/5.0 (fake)",
	}
}

func (f *fakeHandle) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navs = append(f.navs, url)
	return nil
}

func (f *fakeHandle) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, selector)
	if err := f.waitErr[selector]; err != nil {
		return err
	}
	return nil
}

func (f *fakeHandle) Visible(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibleCalls[selector]++
	from, ok := f.visibleFrom[selector]
	if !ok {
		return false, nil
	}
	return f.visibleCalls[selector] >= from, nil
}

func (f *fakeHandle) InnerHTML(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.innerHTML[selector]
	if !ok {
		return "", fmt.Errorf("element not found: %s", selector)
	}
	return html, nil
}

func (f *fakeHandle) OuterHTML(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.outerHTML[selector]
	if !ok {
		return "", fmt.Errorf("element not found: %s", selector)
	}
	return html, nil
}

func (f *fakeHandle) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicked = append(f.clicked, selector)
	if err := f.clickErr[selector]; err != nil {
		return err
	}
	return nil
}

func (f *fakeHandle) Clear(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, selector)
	return nil
}

func (f *fakeHandle) SendKeys(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] = append(f.typed[selector], text)
	return nil
}

func (f *fakeHandle) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locErr != nil {
		return "", f.locErr
	}
	if len(f.locSeq) == 0 {
		return "", nil
	}
	idx := f.locCalls
	if idx >= len(f.locSeq) {
		idx = len(f.locSeq) - 1
	}
	f.locCalls++
	return f.locSeq[idx], nil
}

func (f *fakeHandle) Evaluate(ctx context.Context, script string, res any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals = append(f.evals, script)
	return nil
}

func (f *fakeHandle) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cookiesErr != nil {
		return nil, f.cookiesErr
	}
	return f.cookies, nil
}

func (f *fakeHandle) UserAgent(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userAgent, nil
}

func (f *fakeHandle) typedText(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out string
	for _, s := range f.typed[selector] {
		out += s
	}
	return out
}

// fakeSurface counts hide/show calls to verify the restore-exactly-once
// guarantee.
type fakeSurface struct {
	mu    sync.Mutex
	hides int
	shows int
}

func (s *fakeSurface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
}

func (s *fakeSurface) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows++
}

func (s *fakeSurface) showCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}
