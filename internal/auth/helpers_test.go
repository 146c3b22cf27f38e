// internal/auth/helpers_test.go
package auth

import (
	"time"

	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/browser"
	"github.com/robin0505/PKU-Get/internal/config"
)

const (
	testEntryURL = "https://course.pku.edu.cn/"
	testIAAAURL  = "https://iaaa.pku.edu.cn/iaaa/oauth.jsp"
	testHomeURL  = "https://course.pku.edu.cn/webapps/portal/execute/tabs/tabAction?tab_tab_group_id=_1_1"
)

// testConfig compresses every wait so the race loops run in milliseconds
// while keeping the production selectors and markers.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Pacing = config.PacingConfig{
		EntryWait:         time.Second,
		PageSettle:        0,
		PreClickPause:     0,
		RedirectPoll:      time.Millisecond,
		FirstRedirectWait: 30 * time.Millisecond,
		RetryRedirectWait: 120 * time.Millisecond,

		FormSettle:        0,
		UsernameFieldWait: time.Second,
		PasswordFieldWait: time.Second,
		SubmitButtonWait:  time.Second,
		UsernameKeyDelay:  0,
		PasswordKeyDelay:  0,
		InterFieldPause:   0,
		PreSubmitPause:    0,

		OutcomePoll: 2 * time.Millisecond,
		OutcomeWait: 150 * time.Millisecond,

		CourseListWait: time.Second,
		CourseSettle:   0,
	}
	return cfg
}

func newTestAuthenticator(h browser.Handle, surface browser.DisplaySurface, cfg config.Config) *Authenticator {
	return New(h, surface, cfg, zap.NewNop())
}
