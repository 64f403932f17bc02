package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photodeck/internal/session"
)

var (
	usernameFlag string
	emailFlag    string
	passwordFlag string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if usernameFlag == "" || passwordFlag == "" {
			return fmt.Errorf("both --username and --password are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		a.view.EnterAuth()
		err = a.flow.Submit(cmd.Context(), session.Credentials{
			Username: usernameFlag,
			Password: passwordFlag,
		})
		if err != nil {
			return fmt.Errorf("%s", a.flow.Err())
		}

		user := a.store.User()
		fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
		stats := a.collection.Stats()
		fmt.Printf("%d photos, %d people, %d history entries\n",
			stats.PhotoCount, stats.PersonCount, stats.HistoryCount)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (does not log you in)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if usernameFlag == "" || emailFlag == "" || passwordFlag == "" {
			return fmt.Errorf("--username, --email and --password are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		a.view.EnterAuth()
		a.flow.SetMode(session.ModeSignup)
		err = a.flow.Submit(cmd.Context(), session.Credentials{
			Username: usernameFlag,
			Email:    emailFlag,
			Password: passwordFlag,
		})
		if err != nil {
			return fmt.Errorf("%s", a.flow.Err())
		}

		fmt.Println(a.flow.Notice())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if !a.store.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		a.store.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if !a.store.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		// A restored session has a token but no user until the backend
		// confirms it.
		if user := a.store.User(); user != nil {
			fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
		} else {
			fmt.Println("Session restored from storage (not yet confirmed by the backend).")
		}
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		if err := a.flow.RefreshSession(cmd.Context()); err != nil {
			return fmt.Errorf("failed to refresh session: %w", err)
		}
		fmt.Println("Session refreshed.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&usernameFlag, "username", "u", "", "Account username")
		c.Flags().StringVarP(&passwordFlag, "password", "p", "", "Account password")
	}
	registerCmd.Flags().StringVarP(&emailFlag, "email", "e", "", "Account email")

	RootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, refreshCmd)
}
