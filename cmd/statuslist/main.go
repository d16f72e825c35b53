// statuslist is a CLI for creating, updating and checking Bitstring Status
// List credentials stored as JSON files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pilacorp/go-statuslist-sdk/config"
	credentialstatus "github.com/pilacorp/go-statuslist-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-statuslist-sdk/credential/common/statuslist"
	"github.com/pilacorp/go-statuslist-sdk/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := newRootCmd(cfg, cfg.Logger(os.Stderr)).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode separates input errors (1) from everything else (3).
func exitCode(err error) int {
	if statuslist.IsClientError(err) {
		return 1
	}
	return 3
}

type app struct {
	cfg    *config.Environment
	logger *slog.Logger

	// minimumEntries is not recorded in a credential, so every command that
	// reads a list needs the value the list was created with.
	minimumEntries int
}

func newRootCmd(cfg *config.Environment, logger *slog.Logger) *cobra.Command {
	a := &app{cfg: cfg, logger: logger}

	rootCmd := &cobra.Command{
		Use:               "statuslist",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Bitstring Status List credential tool",
		Long:              "Create, update, inspect and evaluate Bitstring Status List credentials stored as JSON files",
		SilenceUsage:      true,
	}
	rootCmd.PersistentFlags().IntVar(&a.minimumEntries, "minimum-entries", cfg.MinimumEntries,
		"Minimum number of entries a list holds (default: $STATUSLIST_MINIMUM_ENTRIES)")

	rootCmd.AddCommand(
		a.createCmd(),
		a.setCmd(),
		a.getCmd(),
		a.evaluateCmd(),
		a.inspectCmd(),
	)
	return rootCmd
}

func (a *app) createCmd() *cobra.Command {
	var (
		opts         statuslist.CreateOptions
		issuer       string
		purpose      string
		messagesPath string
		validFrom    string
		validUntil   string
		ttl          int64
		statusSize   int
		out          string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new status list credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Issuer = issuer
			opts.StatusPurpose = statuslist.StatusPurpose(purpose)

			if messagesPath != "" {
				messages, err := loadCatalog(messagesPath)
				if err != nil {
					return err
				}
				opts.StatusMessages = messages
			}
			if cmd.Flags().Changed("ttl") {
				opts.TTL = &ttl
			}
			if cmd.Flags().Changed("status-size") {
				opts.StatusSize = &statusSize
			}
			opts.MinimumEntries = a.minimumEntries
			var err error
			if opts.ValidFrom, err = parseTime("valid-from", validFrom); err != nil {
				return err
			}
			if opts.ValidUntil, err = parseTime("valid-until", validUntil); err != nil {
				return err
			}

			reg := a.newRegistry()
			defer reg.Close()

			credential, err := reg.Create(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeCredential(cmd.OutOrStdout(), out, credential)
		},
	}

	cmd.Flags().StringVarP(&issuer, "issuer", "i", a.cfg.Issuer, "Issuer DID or URL (default: $STATUSLIST_ISSUER)")
	cmd.Flags().StringVarP(&purpose, "purpose", "p", string(statuslist.PurposeRevocation), "Status purpose: revocation, suspension, message or an extension")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Credential ID (default: generated urn:uuid)")
	cmd.Flags().StringVar(&opts.ListID, "list-id", "", "credentialSubject ID (default: <id>#list)")
	cmd.Flags().IntVar(&statusSize, "status-size", 1, "Bits per entry (default: inferred from purpose and messages)")
	cmd.Flags().StringVarP(&messagesPath, "messages", "m", "", "YAML status message catalog")
	cmd.Flags().StringVar(&opts.StatusReference, "status-reference", "", "statusReference URL")
	cmd.Flags().Int64Var(&ttl, "ttl", 0, "Time to live in milliseconds")
	cmd.Flags().IntVar(&opts.EntryCount, "entries", 0, "Number of entries (default: the minimum)")
	cmd.Flags().IntVar(&opts.DefaultEntryValue, "default-value", 0, "Initial value of every entry")
	cmd.Flags().StringVar(&validFrom, "valid-from", "", "validFrom (RFC 3339)")
	cmd.Flags().StringVar(&validUntil, "valid-until", "", "validUntil (RFC 3339)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "set index=value [index=value...]",
		Short: "Apply entry updates to a status list credential",
		Long:  "Apply entry updates to a status list credential. The batch is applied only if every update is valid.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates := make([]statuslist.StatusUpdate, 0, len(args))
			for _, arg := range args {
				u, err := registry.ParseUpdateArg(arg)
				if err != nil {
					return err
				}
				updates = append(updates, u)
			}

			reg, id, err := a.loadRegistry(cmd.Context(), in)
			if err != nil {
				return err
			}
			defer reg.Close()

			credential, err := reg.Update(cmd.Context(), id, updates)
			if err != nil {
				return err
			}
			if out == "" {
				out = in
			}
			return writeCredential(cmd.OutOrStdout(), out, credential)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "f", "", "Status list credential file [required]")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: overwrite --in)")
	cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var (
		in           string
		start, count int
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a range of entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, id, err := a.loadRegistry(cmd.Context(), in)
			if err != nil {
				return err
			}
			defer reg.Close()

			values, err := reg.Range(id, start, count)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"start":  start,
				"values": values,
			})
		},
	}

	cmd.Flags().StringVarP(&in, "in", "f", "", "Status list credential file [required]")
	cmd.Flags().IntVar(&start, "start", 0, "First index")
	cmd.Flags().IntVar(&count, "count", 256, "Number of entries")
	cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) evaluateCmd() *cobra.Command {
	var in, url, index, purpose string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the status at an index of a local or remote list",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				evaluation *statuslist.StatusEvaluation
				err        error
			)
			switch {
			case in != "" && url != "":
				return fmt.Errorf("--in and --url are mutually exclusive")
			case url != "":
				client := credentialstatus.NewClient(
					credentialstatus.WithTimeout(a.cfg.FetchTimeout),
					credentialstatus.WithLogger(a.logger),
					credentialstatus.WithMinimumEntries(a.minimumEntries),
				)
				evaluation, err = client.Check(cmd.Context(), statuslist.BitstringStatusListEntry{
					Type:                 statuslist.TypeBitstringStatusListEntry,
					StatusPurpose:        statuslist.StatusPurpose(purpose),
					StatusListIndex:      index,
					StatusListCredential: url,
				})
			case in != "":
				var (
					reg *registry.Registry
					id  string
				)
				reg, id, err = a.loadRegistry(cmd.Context(), in)
				if err != nil {
					return err
				}
				defer reg.Close()
				evaluation, err = reg.Evaluate(cmd.Context(), id, index)
			default:
				return fmt.Errorf("one of --in or --url is required")
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), evaluation)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "f", "", "Status list credential file")
	cmd.Flags().StringVarP(&url, "url", "u", "", "statusListCredential URL")
	cmd.Flags().StringVarP(&index, "index", "n", "", "statusListIndex [required]")
	cmd.Flags().StringVarP(&purpose, "purpose", "p", string(statuslist.PurposeRevocation), "Expected status purpose (with --url)")
	cmd.MarkFlagRequired("index")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a status list credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, id, err := a.loadRegistry(cmd.Context(), in)
			if err != nil {
				return err
			}
			defer reg.Close()

			summary, err := reg.Summary(id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "f", "", "Status list credential file [required]")
	cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) newRegistry() *registry.Registry {
	return registry.New(
		registry.WithLogger(a.logger),
		registry.WithMinimumEntries(a.minimumEntries),
	)
}

// loadRegistry reads a credential file into a fresh registry and returns the
// ID it is stored under.
func (a *app) loadRegistry(ctx context.Context, path string) (*registry.Registry, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read credential: %w", err)
	}
	credential, err := statuslist.ParseCredential(raw)
	if err != nil {
		return nil, "", err
	}
	if credential.ID == "" {
		credential.ID = path
	}

	reg := a.newRegistry()
	if err := reg.Import(ctx, credential); err != nil {
		reg.Close()
		return nil, "", err
	}
	return reg, credential.ID, nil
}

func parseTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, statuslist.WrapError(err, statuslist.CodeMalformedValue, "invalid --"+flag)
	}
	return t, nil
}

func writeCredential(stdout io.Writer, path string, credential *statuslist.Credential) error {
	if path == "" {
		return writeJSON(stdout, credential)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeJSON(f, credential); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
