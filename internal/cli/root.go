package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/commands"
	"github.com/creatorhub-dev/creatorhub/internal/cli/update"
)

var version = "dev" // Will be set during build

var releasesURL = update.ReleasesURL

// NewRootCmd builds the command tree around appFn
func NewRootCmd(appFn commands.AppFunc, fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "creatorhub",
		Short: "CreatorHub - Manage creators across social platforms",
		Long: `CreatorHub CLI - Manage your creators, their content and analytics.

Connect YouTube, Instagram, TikTok, Twitch and OnlyFans accounts, upload and
schedule content, and follow followers, revenue and subscribers in one place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())

	commands.Register(rootCmd, appFn, fs)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "creatorhub version %s\n", version)
			if !check {
				return nil
			}

			available, release, err := update.NewChecker(releasesURL).Check(cmd.Context(), version)
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}
			if available {
				fmt.Fprintf(cmd.OutOrStdout(), "New version %s -> %s: %s\n", version, release.TagName, release.HTMLURL)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "You are on the latest version")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check for a newer release")

	return cmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd(commands.LazyApp(), afero.NewOsFs())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
