package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
)

// dashboard is the overview of one creator
type dashboard struct {
	Creator     *client.Creator   `json:"creator" yaml:"creator"`
	Analytics   *client.Analytics `json:"analytics" yaml:"analytics"`
	Contents    map[string]int    `json:"contents" yaml:"contents"`
	Upcoming    []client.Content  `json:"upcoming" yaml:"upcoming"`
	Subscribers map[string]int    `json:"subscribers" yaml:"subscribers"`
}

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(appFn AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show an overview of the selected creator",
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

			dash, err := loadDashboard(cmd.Context(), app.API, creator)
			if err != nil {
				return explain(err)
			}

			return render(cmd, dash, func(w io.Writer) {
				a := dash.Analytics
				fmt.Fprintf(w, "Creator:\t%s (%s)\n", creator.Name, creator.Email)
				fmt.Fprintf(w, "Followers:\t%d (+%d this %s)\n", a.Followers, a.NewFollowers, a.Period)
				fmt.Fprintf(w, "Views:\t%d\n", a.Views)
				fmt.Fprintf(w, "Revenue:\t%.2f\n", a.Revenue)
				fmt.Fprintf(w, "Platforms:\t%s\n", connectedPlatforms(*creator))
				fmt.Fprintf(w, "Content:\t%d draft, %d scheduled, %d published, %d failed\n",
					dash.Contents[string(client.StatusDraft)],
					dash.Contents[string(client.StatusScheduled)],
					dash.Contents[string(client.StatusPublished)],
					dash.Contents[string(client.StatusFailed)],
				)
				fmt.Fprintf(w, "Subscribers:\t%d free, %d basic, %d premium\n",
					dash.Subscribers["free"], dash.Subscribers["basic"], dash.Subscribers["premium"])

				if len(dash.Upcoming) > 0 {
					fmt.Fprintln(w)
					fmt.Fprintln(w, "UPCOMING\tSCHEDULED\tPLATFORMS")
					for _, c := range dash.Upcoming {
						fmt.Fprintf(w, "%s\t%s\t%d\n", c.Title, formatTime(c.ScheduledDate), len(c.Platforms))
					}
				}
			})
		},
	}

	creatorFlag(cmd)
	return cmd
}

// dashboardAPI is what the dashboard reads
type dashboardAPI interface {
	CreatorAnalytics(ctx context.Context, creatorID string, period client.Period) (*client.Analytics, error)
	ListContents(ctx context.Context, creatorID string) ([]client.Content, error)
	ListSubscribers(ctx context.Context, creatorID string) ([]client.Subscription, error)
}

// loadDashboard fetches the dashboard's parts concurrently; the first failure
// cancels the rest
func loadDashboard(ctx context.Context, api dashboardAPI, creator *client.Creator) (*dashboard, error) {
	dash := &dashboard{
		Creator:     creator,
		Contents:    make(map[string]int),
		Subscribers: make(map[string]int),
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		analytics, err := api.CreatorAnalytics(ctx, creator.ID, client.PeriodMonth)
		if err != nil {
			return err
		}
		dash.Analytics = analytics
		return nil
	})

	p.Go(func(ctx context.Context) error {
		contents, err := api.ListContents(ctx, creator.ID)
		if err != nil {
			return err
		}
		for _, c := range contents {
			dash.Contents[string(c.Status)]++
			if c.Status == client.StatusScheduled {
				dash.Upcoming = append(dash.Upcoming, c)
			}
		}
		return nil
	})

	p.Go(func(ctx context.Context) error {
		subs, err := api.ListSubscribers(ctx, creator.ID)
		if err != nil {
			return err
		}
		for _, s := range subs {
			if s.Status == "active" {
				dash.Subscribers[s.Tier]++
			}
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}
