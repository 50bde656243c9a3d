package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/movienight/internal/app"
	"github.com/mesh-intelligence/movienight/internal/calendar"
	"github.com/mesh-intelligence/movienight/internal/logging"
	"github.com/mesh-intelligence/movienight/internal/paths"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
)

// Config keys.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
	cfgKeyListen          = "listen"
	cfgKeyCalendarDir     = "calendar.dir"
	cfgKeyCalendarDefault = "calendar.default"
	cfgKeyCalendarAccess  = "calendar.access"
	cfgKeySchedule        = "movie_night.schedule"
)

// Defaults for keys missing from config.yaml.
const (
	defaultBackend        = types.BackendSQLite
	defaultLogLevel       = "warn"
	defaultLogFormat      = "console"
	defaultListen         = "127.0.0.1:8080"
	defaultCalendar       = "family"
	defaultCalendarAccess = calendar.AccessPrompt
	defaultMovieNightCron = "0 18 * * 5"
	configFileHeader      = "# movienight configuration\n# backend: sqlite or bolt. calendar.access: granted, denied, or prompt.\n\n"
)

// configFile is the document written to config.yaml on first run.
type configFile struct {
	Backend    string           `yaml:"backend"`
	DataDir    string           `yaml:"data_dir,omitempty"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"`
	Listen     string           `yaml:"listen"`
	Calendar   calendarSection  `yaml:"calendar"`
	MovieNight movieNightConfig `yaml:"movie_night"`
}

type calendarSection struct {
	Dir     string `yaml:"dir,omitempty"`
	Default string `yaml:"default"`
	Access  string `yaml:"access"`
}

type movieNightConfig struct {
	Schedule string `yaml:"schedule"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:   defaultBackend,
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Listen:    defaultListen,
		Calendar: calendarSection{
			Default: defaultCalendar,
			Access:  defaultCalendarAccess,
		},
		MovieNight: movieNightConfig{Schedule: defaultMovieNightCron},
	}
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)
	v.SetDefault(cfgKeyListen, defaultListen)
	v.SetDefault(cfgKeyCalendarDefault, defaultCalendar)
	v.SetDefault(cfgKeyCalendarAccess, defaultCalendarAccess)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile writes config.yaml with default values if the file
// does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configFileHeader), data...), 0o644)
}

// dataDir resolves the data directory: --data-dir, config data_dir,
// $MOVIENIGHT_DATA_DIR, platform default.
func (o *options) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(o.dataDir, o.v.GetString(cfgKeyDataDir))
}

// appConfig assembles the composition-root configuration from flags and
// config.yaml.
func (o *options) appConfig(cmd *cobra.Command) (app.Config, error) {
	dataDir, err := o.resolveDataDir()
	if err != nil {
		return app.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	calDir, err := paths.ResolveCalendarDir(o.v.GetString(cfgKeyCalendarDir), dataDir)
	if err != nil {
		return app.Config{}, sysError(fmt.Errorf("resolve calendar dir: %w", err))
	}
	return app.Config{
		Storage: types.Config{
			Backend: o.v.GetString(cfgKeyBackend),
			DataDir: dataDir,
		},
		CalendarDir:     calDir,
		DefaultCalendar: o.v.GetString(cfgKeyCalendarDefault),
		CalendarAccess:  o.v.GetString(cfgKeyCalendarAccess),
		Schedule:        o.v.GetString(cfgKeySchedule),
		PromptIn:        cmd.InOrStdin(),
		PromptOut:       cmd.ErrOrStderr(),
	}, nil
}

// newLogger builds the logger configured by log_level and log_format.
func (o *options) newLogger() (*zap.Logger, error) {
	logger, err := logging.New(o.v.GetString(cfgKeyLogLevel), o.v.GetString(cfgKeyLogFormat) != "json")
	if err != nil {
		return nil, userError("log_level: %v", err)
	}
	return logger, nil
}

// openApp attaches storage and builds the services. The caller must Close
// the returned App.
func (o *options) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.appConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := o.newLogger()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger)
	if errors.Is(err, app.ErrConfig) {
		return nil, userError("%v", err)
	}
	if err != nil {
		return nil, sysError(err)
	}
	return a, nil
}
