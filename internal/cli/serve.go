package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/postgres"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func newServeCmd(s *session) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the rapport HTTP API until interrupted. auth.jwt_secret must be set
in config.yaml or through RAPPORT_AUTH_JWT_SECRET.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				s.cfg.Server.Addr = addr
			}
			storeCfg, err := s.storeConfig()
			if err != nil {
				return err
			}
			err = app.Serve(s.log, s.cfg, storeCfg)
			if errors.Is(err, app.ErrMissingJWTSecret) {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}

func newMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <up|down|version|force N>",
		Short: "Manage the postgres schema",
		Long: `Apply or roll back the embedded postgres migrations. The sqlite backend
creates its schema when the store opens and has nothing to migrate.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.Backend != types.BackendPostgres {
				return fmt.Errorf("%w: migrate needs backend postgres, config has %q", errUsage, s.cfg.Backend)
			}
			command := strings.ToLower(args[0])
			if err := postgres.RunMigrate(s.log, s.cfg.Postgres, postgres.Migrations(), command, args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			return nil
		},
	}
}
