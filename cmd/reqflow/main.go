package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/studiowebux/reqflow/internal/cli"
	"github.com/studiowebux/reqflow/internal/collection"
	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/keybinds"
	"github.com/studiowebux/reqflow/internal/revision"
	"github.com/studiowebux/reqflow/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Failed requests were already reported
		if !errors.Is(err, cli.ErrFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reqflow",
	Short: "reqflow - HTTP request automation",
	Long: `reqflow runs HTTP requests from a collection with variable substitution,
concurrent folder runs and an interactive request editor.

Examples:
  reqflow run "Get user" -e userId=123        # Send one request
  reqflow run login --query access_token      # Extract a field from the response
  reqflow run-folder users -c 8               # Run a folder concurrently
  reqflow vars                                # List unresolved variables
  reqflow render "Get user" -e userId=1       # Show the rendered request
  reqflow edit "Get user"                     # Edit with undo/redo`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
}

// Flags shared by every command
var (
	flagCollection string
	flagEnvsFile   string
	flagEnv        string
	flagEnvFile    string
	flagExtraVars  []string
	flagLogLevel   string
)

// Flags for run
var (
	flagOutput string
	flagFull   bool
	flagFilter string
	flagQuery  string
	flagPrompt bool
)

// Flags for run-folder
var (
	flagConcurrency int
	flagMatch       []string
	flagNoSave      bool
)

// Flags for reports
var (
	flagReportsCollection string
	flagReportsLimit      int
	flagReportsShow       int64
	flagReportsDelete     int64
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Send one request from the collection",
	Long: `Send one request, identified by ID or name.

Without an argument a picker opens when stdin is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := cli.Open(sharedOptions())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return cli.Run(ctx, ws, cli.RunOptions{
			Request:      firstArg(args),
			OutputFormat: flagOutput,
			ShowFull:     flagFull,
			Filter:       flagFilter,
			Query:        flagQuery,
			Prompt:       flagPrompt,
		})
	},
}

var runFolderCmd = &cobra.Command{
	Use:   "run-folder [folder]",
	Short: "Run every request under a folder concurrently",
	Long: `Run every request under a folder, or the whole collection, and print a report.

Reports are archived in the local database unless --no-save is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := cli.Open(sharedOptions())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return cli.RunFolder(ctx, ws, cli.FolderOptions{
			Folder:       firstArg(args),
			Match:        flagMatch,
			Concurrency:  flagConcurrency,
			OutputFormat: flagOutput,
			NoSave:       flagNoSave,
		})
	},
}

var varsCmd = &cobra.Command{
	Use:   "vars [request]",
	Short: "List unresolved variables per request",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := cli.Open(sharedOptions())
		if err != nil {
			return err
		}
		return cli.Vars(ws, firstArg(args), flagOutput)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <request>",
	Short: "Print a request with its variables substituted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := cli.Open(sharedOptions())
		if err != nil {
			return err
		}
		return cli.Render(ws, args[0], flagOutput)
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Suggest variable tokens matching a partial name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := cli.Open(sharedOptions())
		if err != nil {
			return err
		}
		return cli.Suggest(ws, firstArg(args))
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, show or delete archived folder runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Reports(sharedOptions(), cli.ReportsOptions{
			Collection:   flagReportsCollection,
			Limit:        flagReportsLimit,
			ShowID:       flagReportsShow,
			DeleteID:     flagReportsDelete,
			OutputFormat: flagOutput,
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <request>",
	Short: "Edit a request interactively with undo/redo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor(args[0])
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagCollection, "collection", "C", "", "Collection file or directory (default: ~/.reqflow/collections)")
	pf.StringVar(&flagEnvsFile, "environments", "", "Environments file (default: ./environments.json)")
	pf.StringVar(&flagEnv, "env", "", "Environment to use instead of the active one")
	pf.StringVar(&flagEnvFile, "env-file", "", "Load environment variables from file")
	pf.StringArrayVarP(&flagExtraVars, "extra-vars", "e", []string{}, "Set variable (key=value), can be repeated")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	for _, c := range []*cobra.Command{runCmd, runFolderCmd, varsCmd, renderCmd, reportsCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (json/yaml/text)")
	}

	runCmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show full output (status, headers, body)")
	runCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter applied to a JSON body")
	runCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query or $(shell command) applied to the body")
	runCmd.Flags().BoolVarP(&flagPrompt, "prompt", "p", false, "Prompt for unresolved variables")

	runFolderCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", 0, "Requests in flight (default from settings)")
	runFolderCmd.Flags().StringArrayVarP(&flagMatch, "match", "m", []string{}, "Only run requests whose name matches the glob, can be repeated")
	runFolderCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not archive the report")

	reportsCmd.Flags().StringVar(&flagReportsCollection, "for", "", "Only list runs of this collection")
	reportsCmd.Flags().IntVarP(&flagReportsLimit, "limit", "n", 20, "Maximum runs to list")
	reportsCmd.Flags().Int64Var(&flagReportsShow, "show", 0, "Show the run with this ID")
	reportsCmd.Flags().Int64Var(&flagReportsDelete, "delete", 0, "Delete the run with this ID")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runFolderCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(editCmd)
}

func sharedOptions() cli.Options {
	return cli.Options{
		CollectionPath:   flagCollection,
		EnvironmentsPath: flagEnvsFile,
		EnvName:          flagEnv,
		EnvFile:          flagEnvFile,
		ExtraVars:        flagExtraVars,
		LogLevel:         flagLogLevel,
	}
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// runEditor starts the request editor on one collection entry
func runEditor(ref string) error {
	ws, err := cli.Open(sharedOptions())
	if err != nil {
		return err
	}
	req, err := collection.FindRequest(ws.Collection, ref)
	if err != nil {
		return err
	}

	registry, err := keybinds.LoadOrDefault(filepath.Join(config.ConfigDir, "keybinds.json"))
	if err != nil {
		return fmt.Errorf("failed to load keybinds: %w", err)
	}

	s := ws.Settings
	return tui.Run(tui.Options{
		Request: req,
		Runner:  ws.Runner,
		History: revision.NewStore(revision.Options{
			Limit:           s.HistoryLimit,
			MaxTrackedBytes: s.HistoryMaxTrackedBytes,
			SampleThreshold: s.HistorySampleThreshold,
			SampleCount:     s.HistorySampleCount,
		}),
		Keybinds: registry,
		Debounce: s.SnapshotDebounce(),
		Save: func() error {
			return collection.Save(ws.CollectionPath, ws.Collection)
		},
	})
}
