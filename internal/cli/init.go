package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/movienight/pkg/storage"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

func newInitCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize movienight storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend\nand seed the starter movie catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := o.resolveDataDir()
			if err != nil {
				return sysError(fmt.Errorf("resolve data dir: %w", err))
			}
			cfg := types.Config{Backend: o.v.GetString(cfgKeyBackend), DataDir: dataDir}
			if err := cfg.Validate(); err != nil {
				return userError("backend %q: %v", cfg.Backend, err)
			}

			backend, err := storage.Open(cfg)
			if err != nil {
				return sysError(fmt.Errorf("initialize storage: %w", err))
			}
			movies, err := backend.LoadMovies()
			if err != nil {
				backend.Detach()
				return sysError(fmt.Errorf("load movies: %w", err))
			}
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"backend":  cfg.Backend,
					"data_dir": dataDir,
					"movies":   len(movies),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "movienight initialized (%s backend, %d movies) in %s\n", cfg.Backend, len(movies), dataDir)
			return nil
		},
	}
}
