package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
)

// NewPlatformsCmd creates the platforms command group
func NewPlatformsCmd(appFn AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "platforms",
		Aliases: []string{"platform"},
		Short:   "Connect social platforms to a creator",
	}

	var accessToken string

	connect := &cobra.Command{
		Use:   "connect <platform>",
		Short: "Connect a platform account with an OAuth access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlatform(cmd, appFn, args[0], func(app *App, creator *client.Creator, platform client.PlatformType) error {
				token, err := readSecret(cmd, accessToken, "CREATORHUB_PLATFORM_TOKEN", "Access token")
				if err != nil {
					return err
				}

				if _, err := app.API.ConnectPlatform(cmd.Context(), creator.ID, platform, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s connected to %s\n", platform, creator.Name)
				return nil
			})
		},
	}
	connect.Flags().StringVar(&accessToken, "token", "", "OAuth access token (or set CREATORHUB_PLATFORM_TOKEN, will prompt if not provided)")

	disconnect := &cobra.Command{
		Use:   "disconnect <platform>",
		Short: "Disconnect a platform account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlatform(cmd, appFn, args[0], func(app *App, creator *client.Creator, platform client.PlatformType) error {
				if _, err := app.API.DisconnectPlatform(cmd.Context(), creator.ID, platform); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s disconnected from %s\n", platform, creator.Name)
				return nil
			})
		},
	}

	sync := &cobra.Command{
		Use:   "sync <platform>",
		Short: "Pull the latest follower counts from a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlatform(cmd, appFn, args[0], func(app *App, creator *client.Creator, platform client.PlatformType) error {
				if err := app.API.SyncPlatform(cmd.Context(), creator.ID, platform); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s synced for %s\n", platform, creator.Name)
				return nil
			})
		},
	}

	for _, sub := range []*cobra.Command{connect, disconnect, sync} {
		creatorFlag(sub)
		cmd.AddCommand(sub)
	}

	return cmd
}

func runPlatform(cmd *cobra.Command, appFn AppFunc, name string, run func(*App, *client.Creator, client.PlatformType) error) error {
	platform, err := parsePlatform(name)
	if err != nil {
		return err
	}

	app, err := appFn()
	if err != nil {
		return err
	}
	if err := app.requireLogin(); err != nil {
		return err
	}

	creator, err := resolveCreator(cmd, app, "")
	if err != nil {
		return err
	}

	return explain(run(app, creator, platform))
}

func parsePlatform(name string) (client.PlatformType, error) {
	names := make([]string, len(client.Platforms))
	for i, p := range client.Platforms {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
		names[i] = string(p)
	}
	return "", fmt.Errorf("unknown platform %q, must be one of: %s", name, strings.Join(names, ", "))
}
