package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rapport/internal/app"
)

func newInitCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rapport storage",
		Long: `Create the configuration directory with a default config.yaml, then
open the configured store once so its schema exists. For sqlite this creates
the data directory; for postgres it applies the migrations.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeCfg, err := s.storeConfig()
			if err != nil {
				return err
			}
			if s.dataDir != "" && s.cfg.DataDir == "" {
				if err := pinDataDir(s.configDir, s.cfg.Backend, storeCfg.DataDir); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
			}

			store, err := app.OpenStore(s.log, storeCfg)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := store.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rapport initialized (%s backend, config in %s)\n", storeCfg.Backend, s.configDir)
			return nil
		},
	}
}

// pinDataDir records dataDir in config.yaml so later commands find the same
// store without --data-dir. Keys other than backend and data_dir are kept.
func pinDataDir(configDir, backend, dataDir string) error {
	path := filepath.Join(configDir, "config.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	doc["backend"] = backend
	doc["data_dir"] = dataDir

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
