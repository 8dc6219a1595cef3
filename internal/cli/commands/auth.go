package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/forms"
)

// NewLoginCmd creates the login command
func NewLoginCmd(appFn AppFunc) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your creator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			if email == "" {
				email = os.Getenv("CREATORHUB_EMAIL")
			}
			if email == "" {
				return fmt.Errorf("email is required (use --email flag or CREATORHUB_EMAIL env var)")
			}

			secret, err := readSecret(cmd, password, "CREATORHUB_PASSWORD", "Password")
			if err != nil {
				return err
			}

			if err := app.Forms.Struct(forms.Login{Email: email, Password: secret}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logging in to %s...\n", app.Config.APIURL)

			if err := app.Session.Login(cmd.Context(), email, secret); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			user := app.Session.State().User
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Login successful!")
			fmt.Fprintf(cmd.OutOrStdout(), "  User: %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CREATORHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CREATORHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(appFn AppFunc) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a creator account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			secret, err := readSecret(cmd, password, "CREATORHUB_PASSWORD", "Password")
			if err != nil {
				return err
			}

			if err := app.Forms.Struct(forms.Registration{Email: email, Password: secret, Name: name}); err != nil {
				return err
			}

			if err := app.Session.Register(cmd.Context(), email, secret, name); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Account created. Logged in as %s (%s)\n", name, email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CREATORHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			if err := app.Session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove stored session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

// sessionInfo is the whoami view of the session
type sessionInfo struct {
	User      *client.User `json:"user" yaml:"user"`
	APIURL    string       `json:"apiUrl" yaml:"apiUrl"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(appFn AppFunc) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			if remote {
				user, err := app.API.CurrentUser(cmd.Context())
				if err != nil {
					return explain(err)
				}
				app.Session.SetUser(user)
			}

			state := app.Session.State()
			info := sessionInfo{
				User:      state.User,
				APIURL:    app.Config.APIURL,
				ExpiresAt: tokenExpiry(state.AccessToken),
			}

			return render(cmd, info, func(w io.Writer) {
				fmt.Fprintf(w, "User:\t%s\n", info.User.Name)
				fmt.Fprintf(w, "Email:\t%s\n", info.User.Email)
				fmt.Fprintf(w, "ID:\t%s\n", info.User.ID)
				fmt.Fprintf(w, "API:\t%s\n", info.APIURL)
				fmt.Fprintf(w, "Token expires:\t%s\n", formatTime(info.ExpiresAt))
			})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Reload the profile from the server")

	return cmd
}

// tokenExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque tokens yield nil.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return &exp.Time
}

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			if err := app.Session.RefreshSession(cmd.Context()); err != nil {
				return explain(fmt.Errorf("refresh failed: %w", err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Session refreshed")
			if exp := tokenExpiry(app.Session.AccessToken()); exp != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  Token expires: %s\n", formatTime(exp))
			}
			return nil
		},
	}
}

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd(appFn AppFunc) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			if err := app.API.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ If %s has an account, a reset token is on its way\n", email)
			fmt.Fprintln(cmd.OutOrStdout(), "  Then run: creatorhub reset-password --token <token>")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd(appFn AppFunc) *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}

			secret, err := readSecret(cmd, password, "CREATORHUB_NEW_PASSWORD", "New password")
			if err != nil {
				return err
			}

			if err := app.Forms.Struct(forms.PasswordReset{Token: token, NewPassword: secret}); err != nil {
				return err
			}

			if err := app.API.ResetPassword(cmd.Context(), token, secret); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Password changed. Log in with: creatorhub login")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token")
	cmd.Flags().StringVar(&password, "password", "", "New password (or set CREATORHUB_NEW_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

// NewProfileCmd creates the profile command
func NewProfileCmd(appFn AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your user profile",
	}

	var name, email string

	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			var change client.ProfileUpdate
			if cmd.Flags().Changed("name") {
				change.Name = &name
			}
			if cmd.Flags().Changed("email") {
				change.Email = &email
			}
			if change.Name == nil && change.Email == nil {
				return fmt.Errorf("nothing to update (use --name or --email)")
			}

			user, err := app.API.UpdateProfile(cmd.Context(), change)
			if err != nil {
				return explain(err)
			}
			app.Session.SetUser(user)

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile updated: %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	update.Flags().StringVar(&name, "name", "", "New display name")
	update.Flags().StringVar(&email, "email", "", "New email address")

	cmd.AddCommand(update)
	return cmd
}
