// internal/browser/cdp/handle_test.go
package cdp

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryOpts(t *testing.T) {
	assert.Equal(t, []chromedp.QueryOption{chromedp.ByQuery}, queryOpts("#user_name"))
	assert.Equal(t, []chromedp.QueryOption{chromedp.BySearch}, queryOpts(`//a[normalize-space(.)="校园卡用户"]`))
}

func TestLookupExpr(t *testing.T) {
	assert.Equal(t, `document.querySelector("#msg")`, lookupExpr("#msg"))
	assert.Contains(t, lookupExpr("//a[@id='x']"), "document.evaluate(")
}

func TestCombineContextCallerCancel(t *testing.T) {
	tabCtx := context.Background()
	callerCtx, cancelCaller := context.WithCancel(context.Background())

	combined, cancel := combineContext(tabCtx, callerCtx)
	defer cancel()

	cancelCaller()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not canceled after caller cancellation")
	}
}

func TestCombineContextTabCancel(t *testing.T) {
	tabCtx, cancelTab := context.WithCancel(context.Background())
	callerCtx := context.Background()

	combined, cancel := combineContext(tabCtx, callerCtx)
	defer cancel()

	cancelTab()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not canceled after tab teardown")
	}
	require.ErrorIs(t, combined.Err(), context.Canceled)
}

func TestCombineContextKeepsTabValues(t *testing.T) {
	type key struct{}
	tabCtx := context.WithValue(context.Background(), key{}, "session")

	combined, cancel := combineContext(tabCtx, context.Background())
	defer cancel()

	assert.Equal(t, "session", combined.Value(key{}))
}
