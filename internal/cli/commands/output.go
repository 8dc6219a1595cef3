package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
)

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"

	outputFlag = "output"
)

// AddOutputFlag adds the --output flag to cmd and its subcommands
func AddOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(outputFlag, "o", OutputTable, "Output format: table, json or yaml")
}

func outputFormat(cmd *cobra.Command) string {
	if flag := cmd.Flag(outputFlag); flag != nil {
		return flag.Value.String()
	}
	return OutputTable
}

// render writes v in the selected output format; table draws the table form
func render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	format := outputFormat(cmd)
	out := cmd.OutOrStdout()

	switch format {
	case OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case OutputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	case OutputTable:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()

	default:
		return fmt.Errorf("unknown output format %q, must be one of: table, json, yaml", format)
	}
}

// readSecret returns value, or else the environment variable, or else prompts
// on the terminal without echo
func readSecret(cmd *cobra.Command, value, envKey, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	if value = os.Getenv(envKey); value != "" {
		return value, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s is required in non-interactive mode (use the flag or %s env var)", label, envKey)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return string(secret), nil
}

// explain adds a next step to errors the user can act on
func explain(err error) error {
	var expired *client.AuthExpiredError
	if errors.As(err, &expired) {
		return fmt.Errorf("%w\nRun 'creatorhub login' to sign in again", err)
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && httpErr.IsUnauthorized() {
		return fmt.Errorf("%w\nRun 'creatorhub login' first", err)
	}

	return err
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
