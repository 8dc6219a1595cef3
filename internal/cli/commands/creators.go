package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/creatorselect"
	"github.com/creatorhub-dev/creatorhub/internal/cli/forms"
)

// NewCreatorsCmd creates the creators command group
func NewCreatorsCmd(appFn AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "creators",
		Aliases: []string{"creator"},
		Short:   "Manage creator accounts",
	}

	cmd.AddCommand(
		newCreatorsListCmd(appFn),
		newCreatorsGetCmd(appFn),
		newCreatorsCreateCmd(appFn),
		newCreatorsUpdateCmd(appFn),
		newCreatorsDeleteCmd(appFn),
		newCreatorsSelectCmd(appFn),
	)

	return cmd
}

func newCreatorsListCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List creators",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			creators, err := app.API.ListCreators(cmd.Context())
			if err != nil {
				return explain(err)
			}

			if len(creators) == 0 && outputFormat(cmd) == OutputTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No creators found.")
				fmt.Fprintln(cmd.OutOrStdout(), "\nCreate one with: creatorhub creators create --name <name> --email <email>")
				return nil
			}

			selected, _ := app.Users.SelectedCreator()

			return render(cmd, creators, func(w io.Writer) {
				fmt.Fprintln(w, "\tID\tNAME\tEMAIL\tFOLLOWERS\tSUBSCRIBERS\tPLATFORMS")
				for _, c := range creators {
					marker := ""
					if c.ID == selected {
						marker = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
						marker, c.ID, c.Name, c.Email, c.Followers, c.Subscribers, connectedPlatforms(c))
				}
			})
		},
	}
}

func connectedPlatforms(c client.Creator) string {
	var names []string
	for _, p := range c.Platforms {
		if p.IsConnected {
			names = append(names, string(p.Type))
		}
	}
	return orDash(strings.Join(names, ","))
}

func newCreatorsGetCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id-or-name]",
		Short: "Show a creator (the selected one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			creator, err := resolveCreator(cmd, app, firstArg(args))
			if err != nil {
				return err
			}

			// Reload so the view is current
			creator, err = app.API.GetCreator(cmd.Context(), creator.ID)
			if err != nil {
				return explain(err)
			}

			return render(cmd, creator, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%s\n", creator.ID)
				fmt.Fprintf(w, "Name:\t%s\n", creator.Name)
				fmt.Fprintf(w, "Email:\t%s\n", creator.Email)
				fmt.Fprintf(w, "Bio:\t%s\n", orDash(creator.Bio))
				fmt.Fprintf(w, "Followers:\t%d\n", creator.Followers)
				fmt.Fprintf(w, "Subscribers:\t%d\n", creator.Subscribers)
				fmt.Fprintf(w, "Monthly revenue:\t%.2f\n", creator.MonthlyRevenue)
				fmt.Fprintf(w, "Tags:\t%s\n", orDash(strings.Join(creator.Tags, ", ")))
				fmt.Fprintln(w)
				fmt.Fprintln(w, "PLATFORM\tUSERNAME\tFOLLOWERS\tCONNECTED\tLAST SYNC")
				for _, p := range creator.Platforms {
					fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\n", p.Type, orDash(p.Username), p.Followers, p.IsConnected, formatTime(p.LastSync))
				}
			})
		},
	}
}

func newCreatorsCreateCmd(appFn AppFunc) *cobra.Command {
	var input client.CreatorInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a creator",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			form := forms.Creator{Name: input.Name, Email: input.Email, Bio: input.Bio, Tags: input.Tags}
			if err := app.Forms.Struct(form); err != nil {
				return err
			}

			creator, err := app.API.CreateCreator(cmd.Context(), input)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Creator %s created (%s)\n", creator.Name, creator.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Creator name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Creator contact email")
	cmd.Flags().StringVar(&input.Bio, "bio", "", "Short biography")
	cmd.Flags().StringVar(&input.ProfileImage, "image", "", "Profile image URL")
	cmd.Flags().StringSliceVar(&input.Tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

func newCreatorsUpdateCmd(appFn AppFunc) *cobra.Command {
	var name, email, bio, image string
	var tags []string

	cmd := &cobra.Command{
		Use:   "update [id-or-name]",
		Short: "Change a creator (the selected one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			var update client.CreatorUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("bio") {
				update.Bio = &bio
			}
			if flags.Changed("image") {
				update.ProfileImage = &image
			}
			if flags.Changed("tag") {
				update.Tags = &tags
			}
			if update == (client.CreatorUpdate{}) {
				return fmt.Errorf("nothing to update (use --name, --email, --bio, --image or --tag)")
			}

			creator, err := resolveCreator(cmd, app, firstArg(args))
			if err != nil {
				return err
			}

			updated, err := app.API.UpdateCreator(cmd.Context(), creator.ID, update)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Creator %s updated\n", updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Creator name")
	cmd.Flags().StringVar(&email, "email", "", "Creator contact email")
	cmd.Flags().StringVar(&bio, "bio", "", "Short biography")
	cmd.Flags().StringVar(&image, "image", "", "Profile image URL")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable, replaces all tags)")

	return cmd
}

func newCreatorsDeleteCmd(appFn AppFunc) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a creator and all its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			creator, err := resolveCreator(cmd, app, args[0])
			if err != nil {
				return err
			}

			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Delete creator %s and all its content", creator.Name),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return fmt.Errorf("aborted")
				}
			}

			if err := app.API.DeleteCreator(cmd.Context(), creator.ID); err != nil {
				return explain(err)
			}

			if selected, _ := app.Users.SelectedCreator(); selected == creator.ID {
				_ = app.Users.SetSelectedCreator("", "")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Creator %s deleted\n", creator.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newCreatorsSelectCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "select [id-or-name]",
		Short: "Select the creator to use for commands",
		Long: `Select the creator to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ creatorhub creators select          # Interactive selection
  $ creatorhub creators select c_01H... # Select by ID
  $ creatorhub creators select alice    # Select by name`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			creators, err := app.API.ListCreators(cmd.Context())
			if err != nil {
				return explain(err)
			}

			var creator *client.Creator
			if idOrName := firstArg(args); idOrName != "" {
				creator, err = creatorselect.Find(creators, idOrName)
			} else {
				creator, err = creatorselect.Prompt(creators)
			}
			if err != nil {
				return err
			}

			if err := app.Users.SetSelectedCreator(creator.ID, creator.Name); err != nil {
				return fmt.Errorf("failed to save selected creator: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Selected creator: %s (%s)\n", creator.Name, creator.ID)
			return nil
		},
	}
}

// creatorFlag adds the --creator flag used by commands that work on a creator
func creatorFlag(cmd *cobra.Command) {
	cmd.Flags().String("creator", "", "Creator ID or name (defaults to the selected creator)")
}

// resolveCreator picks the creator from idOrName, the --creator flag, the
// saved selection or a prompt
func resolveCreator(cmd *cobra.Command, app *App, idOrName string) (*client.Creator, error) {
	if idOrName == "" {
		if flag := cmd.Flags().Lookup("creator"); flag != nil {
			idOrName = flag.Value.String()
		}
	}

	creator, err := app.Creators.Resolve(cmd.Context(), idOrName)
	if err != nil {
		return nil, explain(err)
	}
	return creator, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
