// Package cli implements the movienight command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/movienight/internal/paths"
	"github.com/mesh-intelligence/movienight/pkg/movienight"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// options holds global flag values and the loaded configuration shared by
// all subcommands of one root command.
type options struct {
	configDir string
	dataDir   string
	jsonMode  bool

	v *viper.Viper
}

// NewRootCmd creates the top-level "movienight" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:     "movienight",
		Short:   "Plan family movie nights and keep their memories",
		Long:    "movienight picks age-appropriate movies, schedules movie nights on a calendar,\nand records ratings, discussion answers, and photos after watching.",
		Version: movienight.Version,
		// Errors are printed by Execute with the matching exit code.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return o.load()
		},
	}

	root.PersistentFlags().StringVar(&o.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&o.dataDir, "data-dir", "", "data directory (default: config data_dir, $"+paths.EnvDataDir+", or platform data dir)")
	root.PersistentFlags().BoolVar(&o.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(o))
	root.AddCommand(newMovieCmd(o))
	root.AddCommand(newMemoryCmd(o))
	root.AddCommand(newAnswerCmd(o))
	root.AddCommand(newScheduleCmd(o))
	root.AddCommand(newServeCmd(o))

	return root
}

// load resolves the config directory and reads config.yaml.
func (o *options) load() error {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	o.v = v
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors from cobra.
	return exitUserError
}
