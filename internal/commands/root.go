// internal/commands/root.go
package contextgather

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/contextgather/internal/appconfig"
	"github.com/mwiater/contextgather/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"

	// appFs is the filesystem the gather pipeline reads from.
	appFs afero.Fs = afero.NewOsFs()
)

// rootCmd gathers the given paths into chunked XML context.
var rootCmd = &cobra.Command{
	Use:   "context-gather [paths...]",
	Short: "context-gather — pack source files into token-budgeted XML chunks for LLM prompts",
	Long: `Gather text files, group them by folder and render them as XML. With --chunk-size
the output is split into chunks that each fit the token budget, led by a context header
that maps every file to the chunks holding it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		cfg := appconfig.Defaults()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("%w: unmarshal config: %v", appconfig.ErrInvalidConfig, err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath(), cfg.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogEvent("context-gather %s starting, config=%q", appVersion, cfg.ConfigPath)
		return nil
	},
	RunE: runGather,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(ExitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", appconfig.ErrInvalidConfig, err)
	})

	defaults := appconfig.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .context-gather.json when present)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-file", "", "write a JSON debug log to this path (off when empty)")
	flags.IntP("chunk-size", "c", 0, "token budget per chunk (0 = one unbounded chunk)")
	flags.Int64("max-size", defaults.MaxSize, "skip files larger than this many bytes")
	flags.StringSlice("exclude", nil, "glob patterns to exclude (repeatable)")
	flags.Bool("escape-xml", defaults.EscapeXML, "escape &, < and > in file contents")
	flags.String("header-mode", defaults.HeaderMode, "context header placement: inline or separate")
	flags.String("tokenizer", defaults.Tokenizer, "token counter: tiktoken or approx")
	flags.String("tokenizer-model", defaults.TokenizerModel, "model or encoding name for the tiktoken counter")
	flags.Int("bytes-per-token", defaults.BytesPerToken, "bytes per token for the approx counter")
	flags.Int("concurrency", 0, "parallel token counting workers (0 = number of CPUs)")
	flags.Bool("stdout", false, "print the XML to stdout")
	flags.Bool("no-clipboard", false, "do not copy to the clipboard")
	flags.Int("chunk-index", defaults.ChunkIndex, "chunk to copy to the clipboard (default 0)")
	flags.BoolP("interactive", "i", false, "pick files in a terminal UI first")
	flags.Bool("stream", false, "copy chunks one at a time on request")
	flags.Bool("multi-step", false, "copy the header, then serve files on request")
	flags.Int("model-context", 0, "warn when the token total exceeds this model context size")

	bindFlags(rootCmd, map[string]string{
		"debug":           "debug",
		"log-file":        "logFile",
		"chunk-size":      "chunkSize",
		"max-size":        "maxSize",
		"exclude":         "exclude",
		"escape-xml":      "escapeXml",
		"header-mode":     "headerMode",
		"tokenizer":       "tokenizer",
		"tokenizer-model": "tokenizerModel",
		"bytes-per-token": "bytesPerToken",
		"concurrency":     "concurrency",
		"stdout":          "stdout",
		"no-clipboard":    "noClipboard",
		"chunk-index":     "chunkIndex",
		"interactive":     "interactive",
		"stream":          "stream",
		"multi-step":      "multiStep",
		"model-context":   "modelContext",
	})

	viper.SetEnvPrefix("CG")
	viper.AutomaticEnv()
	_ = viper.BindEnv("tokenizerModel", "CG_TOKENIZER_MODEL", "CG_TOKENIZERMODEL")
}

// bindFlags binds kebab-case flags to their camelCase config keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			continue
		}
		_ = viper.BindPFlag(key, flag)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return
	}
	if _, err := os.Stat(appconfig.DefaultConfigPath); err == nil {
		viper.SetConfigFile(appconfig.DefaultConfigPath)
	}
}

// ensureConfigLoaded validates and reads the config file, if one is set.
func ensureConfigLoaded() error {
	file := viper.ConfigFileUsed()
	if file == "" {
		return nil
	}
	if err := appconfig.ValidateFile(file); err != nil {
		if errors.Is(err, appconfig.ErrInvalidConfig) {
			return err
		}
		return fmt.Errorf("%w: %v", appconfig.ErrInvalidConfig, err)
	}
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: failed to load config: %v", appconfig.ErrInvalidConfig, err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
