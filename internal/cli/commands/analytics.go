package commands

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
)

// NewAnalyticsCmd creates the analytics command group
func NewAnalyticsCmd(appFn AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show creator and content analytics",
	}

	var period string

	creatorCmd := &cobra.Command{
		Use:   "creator [id-or-name]",
		Short: "Show a creator's analytics for a period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			p, err := parsePeriod(period)
			if err != nil {
				return err
			}

			creator, err := resolveCreator(cmd, app, firstArg(args))
			if err != nil {
				return err
			}

			analytics, err := app.API.CreatorAnalytics(cmd.Context(), creator.ID, p)
			if err != nil {
				return explain(err)
			}

			return render(cmd, analytics, func(w io.Writer) {
				fmt.Fprintf(w, "Creator:\t%s\n", creator.Name)
				fmt.Fprintf(w, "Period:\t%s\n", analytics.Period)
				fmt.Fprintf(w, "Followers:\t%d (+%d / -%d)\n", analytics.Followers, analytics.NewFollowers, analytics.Unfollowers)
				fmt.Fprintf(w, "Views:\t%d\n", analytics.Views)
				fmt.Fprintf(w, "Engagement:\t%.2f%%\n", analytics.Engagement)
				fmt.Fprintf(w, "Revenue:\t%.2f\n", analytics.Revenue)

				if len(analytics.PlatformBreakdown) > 0 {
					fmt.Fprintln(w)
					fmt.Fprintln(w, "PLATFORM\tFOLLOWERS\tREVENUE\tENGAGEMENT")
					for _, b := range analytics.PlatformBreakdown {
						fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f%%\n", b.Platform, b.Followers, b.Revenue, b.Engagement)
					}
				}

				if len(analytics.TopContent) > 0 {
					fmt.Fprintln(w)
					fmt.Fprintln(w, "TOP CONTENT\tVIEWS\tLIKES")
					for _, c := range analytics.TopContent {
						var views, likes int64
						if c.Analytics != nil {
							views, likes = c.Analytics.Views, c.Analytics.Likes
						}
						fmt.Fprintf(w, "%s\t%d\t%d\n", c.Title, views, likes)
					}
				}
			})
		},
	}
	creatorFlag(creatorCmd)
	creatorCmd.Flags().StringVar(&period, "period", string(client.PeriodMonth), "Period: day, week, month or year")

	contentCmd := &cobra.Command{
		Use:   "content <content-id>",
		Short: "Show a content item's engagement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			analytics, err := app.API.ContentAnalytics(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}

			return render(cmd, analytics, func(w io.Writer) {
				fmt.Fprintln(w, "VIEWS\tLIKES\tCOMMENTS\tSHARES\tREVENUE")
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.2f\n", analytics.Views, analytics.Likes, analytics.Comments, analytics.Shares, analytics.Revenue)
			})
		},
	}

	cmd.AddCommand(creatorCmd, contentCmd)
	return cmd
}

func parsePeriod(value string) (client.Period, error) {
	switch p := client.Period(value); p {
	case client.PeriodDay, client.PeriodWeek, client.PeriodMonth, client.PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q, must be one of: day, week, month, year", value)
	}
}

// NewSubscribersCmd creates the subscribers command group. fs is where
// export writes files.
func NewSubscribersCmd(appFn AppFunc, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "List and export a creator's subscribers",
	}

	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			subs, err := app.API.ListSubscribers(cmd.Context(), creator.ID)
			if err != nil {
				return explain(err)
			}

			if len(subs) == 0 && outputFormat(cmd) == OutputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no subscribers yet.\n", creator.Name)
				return nil
			}

			return render(cmd, subs, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tSUBSCRIBER\tTIER\tPRICE\tSTATUS\tBILLING\tSINCE")
				for _, s := range subs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
						s.ID, s.SubscriberID, s.Tier, s.Price, s.Status, s.BillingCycle, formatTime(&s.StartDate))
				}
			})
		},
	}
	creatorFlag(list)

	var format, file string

	export := &cobra.Command{
		Use:   "export",
		Short: "Export subscribers as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			exportFormat := client.ExportFormat(format)
			if exportFormat != client.ExportCSV && exportFormat != client.ExportXLSX {
				return fmt.Errorf("invalid format %q, must be one of: csv, xlsx", format)
			}

			creator, err := resolveCreator(cmd, app, "")
			if err != nil {
				return err
			}

			data, err := app.API.ExportSubscribers(cmd.Context(), creator.ID, exportFormat)
			if err != nil {
				return explain(err)
			}

			if file == "" || file == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := afero.WriteFile(fs, file, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported subscribers of %s to %s\n", creator.Name, file)
			return nil
		},
	}
	creatorFlag(export)
	export.Flags().StringVar(&format, "format", string(client.ExportCSV), "Export format: csv or xlsx")
	export.Flags().StringVarP(&file, "file", "f", "", "Output file (defaults to stdout)")

	cmd.AddCommand(list, export)
	return cmd
}
