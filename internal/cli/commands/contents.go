package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/forms"
)

// scheduleLayouts are the accepted --at formats besides RFC 3339
var scheduleLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04"}

// NewContentsCmd creates the contents command group. fs is where upload
// reads media files from.
func NewContentsCmd(appFn AppFunc, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contents",
		Aliases: []string{"content"},
		Short:   "Upload, schedule and publish content",
	}

	cmd.AddCommand(
		newContentsListCmd(appFn),
		newContentsGetCmd(appFn),
		newContentsUploadCmd(appFn, fs),
		newContentsUpdateCmd(appFn),
		newContentsDeleteCmd(appFn),
		newContentsScheduleCmd(appFn),
		newContentsPublishCmd(appFn),
	)

	return cmd
}

func newContentsListCmd(appFn AppFunc) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List a creator's content",
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

			contents, err := app.API.ListContents(cmd.Context(), creator.ID)
			if err != nil {
				return explain(err)
			}

			if status != "" {
				filtered := contents[:0]
				for _, c := range contents {
					if string(c.Status) == status {
						filtered = append(filtered, c)
					}
				}
				contents = filtered
			}

			if len(contents) == 0 && outputFormat(cmd) == OutputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "No content found for %s.\n", creator.Name)
				fmt.Fprintln(cmd.OutOrStdout(), "\nUpload with: creatorhub contents upload <file> --title <title> --platform <platform>")
				return nil
			}

			return render(cmd, contents, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tPLATFORMS\tSCHEDULED\tPUBLISHED")
				for _, c := range contents {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						c.ID, c.Title, c.Type, c.Status,
						strings.Join(c.Platforms, ","),
						formatTime(c.ScheduledDate),
						formatTime(c.PublishedDate),
					)
				}
			})
		},
	}

	creatorFlag(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Only show content in this status (draft, scheduled, published, failed)")

	return cmd
}

func newContentsGetCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <content-id>",
		Short: "Show a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			content, err := app.API.GetContent(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}

			return render(cmd, content, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%s\n", content.ID)
				fmt.Fprintf(w, "Title:\t%s\n", content.Title)
				fmt.Fprintf(w, "Description:\t%s\n", orDash(content.Description))
				fmt.Fprintf(w, "Type:\t%s\n", content.Type)
				fmt.Fprintf(w, "Status:\t%s\n", content.Status)
				fmt.Fprintf(w, "Platforms:\t%s\n", orDash(strings.Join(content.Platforms, ", ")))
				fmt.Fprintf(w, "Media:\t%s\n", orDash(content.MediaURL))
				fmt.Fprintf(w, "Scheduled:\t%s\n", formatTime(content.ScheduledDate))
				fmt.Fprintf(w, "Published:\t%s\n", formatTime(content.PublishedDate))
				fmt.Fprintf(w, "Tags:\t%s\n", orDash(strings.Join(content.Tags, ", ")))
				if a := content.Analytics; a != nil {
					fmt.Fprintf(w, "Views:\t%d\n", a.Views)
					fmt.Fprintf(w, "Likes:\t%d\n", a.Likes)
					fmt.Fprintf(w, "Comments:\t%d\n", a.Comments)
					fmt.Fprintf(w, "Shares:\t%d\n", a.Shares)
					fmt.Fprintf(w, "Revenue:\t%.2f\n", a.Revenue)
				}
			})
		},
	}
}

func newContentsUploadCmd(appFn AppFunc, fs afero.Fs) *cobra.Command {
	var title, description string
	var platforms, tags []string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image or video as a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			path := args[0]
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			media, err := app.Forms.Media(data)
			if err != nil {
				return err
			}

			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			form := forms.Content{
				Title:       title,
				Description: description,
				Type:        string(media.Type),
				Platforms:   platforms,
				Tags:        tags,
			}
			if err := app.Forms.Struct(form); err != nil {
				return err
			}

			creator, err := resolveCreator(cmd, app, "")
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploading %s (%s, %s) for %s...\n", filepath.Base(path), media.MIMEType, humanBytes(media.Size), creator.Name)

			content, err := app.API.UploadContent(cmd.Context(), creator.ID, client.Upload{
				Title:       title,
				Description: description,
				Type:        media.Type,
				Platforms:   platforms,
				Tags:        tags,
				FileName:    filepath.Base(path),
				MIMEType:    media.MIMEType,
				Media:       data,
			})
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded %q (%s)\n", content.Title, content.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Schedule it with: creatorhub contents schedule %s --at \"YYYY-MM-DD HH:MM\"\n", content.ID)
			return nil
		},
	}

	creatorFlag(cmd)
	cmd.Flags().StringVar(&title, "title", "", "Title (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "Target platform (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func newContentsUpdateCmd(appFn AppFunc) *cobra.Command {
	var title, description string
	var platforms, tags []string

	cmd := &cobra.Command{
		Use:   "update <content-id>",
		Short: "Change a content item's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			var update client.ContentUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("platform") {
				update.Platforms = &platforms
			}
			if flags.Changed("tag") {
				update.Tags = &tags
			}
			if update == (client.ContentUpdate{}) {
				return fmt.Errorf("nothing to update (use --title, --description, --platform or --tag)")
			}

			content, err := app.API.UpdateContent(cmd.Context(), args[0], update)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Content %q updated\n", content.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "Target platform (repeatable, replaces all)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable, replaces all)")

	return cmd
}

func newContentsDeleteCmd(appFn AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <content-id>",
		Short: "Delete a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			if err := app.API.DeleteContent(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Content %s deleted\n", args[0])
			return nil
		},
	}
}

func newContentsScheduleCmd(appFn AppFunc) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "schedule <content-id>",
		Short: "Schedule a content item for publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			when, err := parseScheduleTime(at)
			if err != nil {
				return err
			}

			if err := app.Forms.Struct(forms.Schedule{ScheduledDate: when}); err != nil {
				return err
			}

			content, err := app.API.ScheduleContent(cmd.Context(), args[0], when)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %q scheduled for %s\n", content.Title, formatTime(content.ScheduledDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", `Publication time, RFC 3339 or local "YYYY-MM-DD HH:MM"`)
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func parseScheduleTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or \"YYYY-MM-DD HH:MM\"", value)
}

func newContentsPublishCmd(appFn AppFunc) *cobra.Command {
	var platforms []string

	cmd := &cobra.Command{
		Use:   "publish <content-id>",
		Short: "Publish a content item now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn()
			if err != nil {
				return err
			}
			if err := app.requireLogin(); err != nil {
				return err
			}

			for _, p := range platforms {
				if _, err := parsePlatform(p); err != nil {
					return err
				}
			}

			content, err := app.API.PublishContent(cmd.Context(), args[0], platforms)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %q published to %s\n", content.Title, orDash(strings.Join(content.Platforms, ", ")))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "Platform to publish to (repeatable, defaults to the content's platforms)")

	return cmd
}
