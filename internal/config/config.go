// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the whole application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Portal  PortalConfig  `mapstructure:"portal" yaml:"portal"`
	Pacing  PacingConfig  `mapstructure:"pacing" yaml:"pacing"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the chromedp allocator.
type BrowserConfig struct {
	Headless        bool   `mapstructure:"headless" yaml:"headless"`
	ExecPath        string `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent       string `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth     int    `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int    `mapstructure:"window_height" yaml:"window_height"`
	IgnoreTLSErrors bool   `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug           bool   `mapstructure:"debug" yaml:"debug"`
}

// PortalConfig describes the course portal and the IAAA identity provider.
// None of these values come from a documented API; they mirror the portal's
// rendered markup and break whenever PKU renames things.
type PortalConfig struct {
	EntryURL        string         `mapstructure:"entry_url" yaml:"entry_url"`
	ProviderDomain  string         `mapstructure:"provider_domain" yaml:"provider_domain"`
	HomeMarker      string         `mapstructure:"home_marker" yaml:"home_marker"`
	MethodLinkText  string         `mapstructure:"method_link_text" yaml:"method_link_text"`
	ProgressPhrases []string       `mapstructure:"progress_phrases" yaml:"progress_phrases"`
	Selectors       SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
}

// SelectorConfig pins the element selectors used during login.
type SelectorConfig struct {
	UsernameField string `mapstructure:"username_field" yaml:"username_field"`
	PasswordField string `mapstructure:"password_field" yaml:"password_field"`
	SubmitButton  string `mapstructure:"submit_button" yaml:"submit_button"`
	StatusMessage string `mapstructure:"status_message" yaml:"status_message"`
	CourseList    string `mapstructure:"course_list" yaml:"course_list"`
}

// PacingConfig carries every bounded wait and deliberate delay in the login
// flow. The per-character typing delays are an anti-bot measure, not a
// performance knob.
type PacingConfig struct {
	EntryWait         time.Duration `mapstructure:"entry_wait" yaml:"entry_wait"`
	PageSettle        time.Duration `mapstructure:"page_settle" yaml:"page_settle"`
	PreClickPause     time.Duration `mapstructure:"pre_click_pause" yaml:"pre_click_pause"`
	RedirectPoll      time.Duration `mapstructure:"redirect_poll" yaml:"redirect_poll"`
	FirstRedirectWait time.Duration `mapstructure:"first_redirect_wait" yaml:"first_redirect_wait"`
	RetryRedirectWait time.Duration `mapstructure:"retry_redirect_wait" yaml:"retry_redirect_wait"`

	FormSettle        time.Duration `mapstructure:"form_settle" yaml:"form_settle"`
	UsernameFieldWait time.Duration `mapstructure:"username_field_wait" yaml:"username_field_wait"`
	PasswordFieldWait time.Duration `mapstructure:"password_field_wait" yaml:"password_field_wait"`
	SubmitButtonWait  time.Duration `mapstructure:"submit_button_wait" yaml:"submit_button_wait"`
	UsernameKeyDelay  time.Duration `mapstructure:"username_key_delay" yaml:"username_key_delay"`
	PasswordKeyDelay  time.Duration `mapstructure:"password_key_delay" yaml:"password_key_delay"`
	InterFieldPause   time.Duration `mapstructure:"inter_field_pause" yaml:"inter_field_pause"`
	PreSubmitPause    time.Duration `mapstructure:"pre_submit_pause" yaml:"pre_submit_pause"`

	OutcomePoll time.Duration `mapstructure:"outcome_poll" yaml:"outcome_poll"`
	OutcomeWait time.Duration `mapstructure:"outcome_wait" yaml:"outcome_wait"`

	CourseListWait time.Duration `mapstructure:"course_list_wait" yaml:"course_list_wait"`
	CourseSettle   time.Duration `mapstructure:"course_settle" yaml:"course_settle"`
}

// RedirectWait selects the redirect timeout for a given attempt index. The
// first attempt gets a deliberately short window because the IAAA redirect
// usually loses its internal race on a cold load; retries get the longer one.
func (p PacingConfig) RedirectWait(attempt int) time.Duration {
	if attempt == 0 {
		return p.FirstRedirectWait
	}
	return p.RetryRedirectWait
}

// Default returns the configuration matching the live portal as of the last
// time anyone checked.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "pku-get",
			MaxSize:     20,
			MaxBackups:  3,
			MaxAge:      14,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
				Fatal: "magenta",
			},
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1440,
			WindowHeight: 900,
		},
		Portal: PortalConfig{
			EntryURL:        "https://course.pku.edu.cn/",
			ProviderDomain:  "iaaa.pku.edu.cn",
			HomeMarker:      "portal/execute/tabs/tabAction",
			MethodLinkText:  "校园卡用户",
			ProgressPhrases: []string{"正在登录", "Logging In"},
			Selectors: SelectorConfig{
				UsernameField: "#user_name",
				PasswordField: "#password",
				SubmitButton:  "#logon_button",
				StatusMessage: "#msg",
				CourseList:    `#module\:_141_1 ul.portletList-img.courseListing`,
			},
		},
		Pacing: PacingConfig{
			EntryWait:         20 * time.Second,
			PageSettle:        1 * time.Second,
			PreClickPause:     800 * time.Millisecond,
			RedirectPoll:      500 * time.Millisecond,
			FirstRedirectWait: 5 * time.Second,
			RetryRedirectWait: 15 * time.Second,

			FormSettle:        1500 * time.Millisecond,
			UsernameFieldWait: 20 * time.Second,
			PasswordFieldWait: 10 * time.Second,
			SubmitButtonWait:  10 * time.Second,
			UsernameKeyDelay:  30 * time.Millisecond,
			PasswordKeyDelay:  80 * time.Millisecond,
			InterFieldPause:   1500 * time.Millisecond,
			PreSubmitPause:    500 * time.Millisecond,

			OutcomePoll: 500 * time.Millisecond,
			OutcomeWait: 40 * time.Second,

			CourseListWait: 25 * time.Second,
			CourseSettle:   2 * time.Second,
		},
	}
}

// Load reads the configuration from viper, layered over the defaults.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the login flow unbounded
// or aim it at nothing.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Portal.EntryURL) == "" {
		return fmt.Errorf("portal.entry_url must not be empty")
	}
	if strings.TrimSpace(c.Portal.ProviderDomain) == "" {
		return fmt.Errorf("portal.provider_domain must not be empty")
	}
	if strings.TrimSpace(c.Portal.HomeMarker) == "" {
		return fmt.Errorf("portal.home_marker must not be empty")
	}
	if c.Pacing.OutcomePoll <= 0 {
		return fmt.Errorf("pacing.outcome_poll must be positive")
	}
	if c.Pacing.OutcomeWait <= 0 {
		return fmt.Errorf("pacing.outcome_wait must be positive")
	}
	if c.Pacing.FirstRedirectWait <= 0 || c.Pacing.RetryRedirectWait <= 0 {
		return fmt.Errorf("pacing redirect waits must be positive")
	}
	return nil
}
