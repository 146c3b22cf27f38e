// -- cmd/login.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robin0505/PKU-Get/internal/auth"
	"github.com/robin0505/PKU-Get/internal/browser/cdp"
	"github.com/robin0505/PKU-Get/internal/observability"
)

var (
	loginUsername string
	loginPassword string
	loginAttempts int
)

// loginCmd performs the browser login and reports the bridged session and
// course list. Retrying lives here, on the caller side: the auth core runs
// exactly one attempt per call and only varies timeouts by attempt index.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the course portal and print the extracted course list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		username := loginUsername
		if username == "" {
			username = os.Getenv("PKUGET_USERNAME")
		}
		password := loginPassword
		if password == "" {
			password = os.Getenv("PKUGET_PASSWORD")
		}
		if username == "" || password == "" {
			return fmt.Errorf("username and password are required (flags or PKUGET_USERNAME/PKUGET_PASSWORD)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		handle, err := cdp.New(ctx, cfg.Browser, logger)
		if err != nil {
			return err
		}
		defer handle.Close()

		authenticator := auth.New(handle, nil, cfg, logger)

		var lastErr error
		for attempt := 0; attempt < loginAttempts; attempt++ {
			session, courses, err := authenticator.Login(ctx, username, password, attempt)
			if err == nil {
				logger.Info("Session ready", zap.String("session_id", session.ID()))
				printCourses(cmd, courses)
				return nil
			}
			lastErr = err

			if errors.Is(err, context.Canceled) {
				return err
			}
			// Provider-reported rejections (wrong password and friends) will
			// not improve on retry.
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				break
			}

			logger.Warn("Login attempt failed, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
		}

		return fmt.Errorf("login failed: %s", auth.Message(lastErr))
	},
}

func printCourses(cmd *cobra.Command, courses []auth.CourseRecord) {
	if len(courses) == 0 {
		cmd.Println("No courses extracted.")
		return
	}
	for _, c := range courses {
		cmd.Printf("%s\t%s\t%s\n", c.ID, c.Name, c.URL)
	}
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "student ID")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password")
	loginCmd.Flags().IntVar(&loginAttempts, "attempts", 3, "maximum login attempts")
	rootCmd.AddCommand(loginCmd)
}
