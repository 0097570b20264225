// Package cli implements the rapport command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/config"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/paths"
	"github.com/mesh-intelligence/rapport/internal/version"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// dotEnvFile is loaded from the working directory before config is read.
const dotEnvFile = ".env"

// session holds global flag values and the loaded configuration shared by
// all subcommands of one invocation.
type session struct {
	configDir string
	dataDir   string
	jsonMode  bool
	as        string

	cfg   *config.Config
	log   *slog.Logger
	clock types.Clock
}

// NewRootCmd creates the top-level "rapport" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&session{})
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:     "rapport",
		Short:   "Keep track of the people you know",
		Long:    "rapport records contacts, meetings and reminders, and shares contacts\nwith other users under VIEW or VIEW_ADD permission.",
		Version: version.GetInfo(),
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd.ErrOrStderr())
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	root.PersistentFlags().StringVar(&s.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $RAPPORT_CONFIG_DIR)")
	root.PersistentFlags().StringVar(&s.dataDir, "data-dir", "", "data directory (default: $(CWD)/.rapport-db)")
	root.PersistentFlags().BoolVar(&s.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&s.as, "as", "", "email of the acting user")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(s))
	root.AddCommand(newServeCmd(s))
	root.AddCommand(newMigrateCmd(s))
	root.AddCommand(newUserCmd(s))
	root.AddCommand(newContactCmd(s))
	root.AddCommand(newMeetingCmd(s))
	root.AddCommand(newShareCmd(s))
	root.AddCommand(newReminderCmd(s))
	root.AddCommand(newDashboardCmd(s))
	root.AddCommand(newExportCmd(s))
	root.AddCommand(newImportCmd(s))

	return root
}

// load reads .env and config.yaml and initializes logging.
func (s *session) load(stderr io.Writer) error {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return err
	}
	configDir, err := paths.ResolveConfigDir(s.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	s.configDir = configDir

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	s.cfg = cfg

	logger.InitWriter(stderr, cfg.Log.Level, cfg.Log.Format)
	s.log = logger.L
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps err to the process exit status: 1 for caller mistakes,
// 2 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case types.IsUserError(err), errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}
