// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/contextgather/internal/contextpack"
	"github.com/mwiater/contextgather/internal/gather"
	"github.com/mwiater/contextgather/internal/tokenizer"
)

// DefaultConfigPath is the config file picked up from the working directory when present.
const DefaultConfigPath = ".context-gather.json"

// ErrInvalidConfig marks configuration problems, as opposed to runtime failures.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schema []byte

// Config represents the top-level application configuration.
type Config struct {
	ChunkSize      int      `json:"chunkSize" mapstructure:"chunkSize"`
	MaxSize        int64    `json:"maxSize,omitempty" mapstructure:"maxSize"`
	Exclude        []string `json:"exclude,omitempty" mapstructure:"exclude"`
	EscapeXML      bool     `json:"escapeXml" mapstructure:"escapeXml"`
	HeaderMode     string   `json:"headerMode,omitempty" mapstructure:"headerMode"`
	Tokenizer      string   `json:"tokenizer,omitempty" mapstructure:"tokenizer"`
	TokenizerModel string   `json:"tokenizerModel,omitempty" mapstructure:"tokenizerModel"`
	BytesPerToken  int      `json:"bytesPerToken,omitempty" mapstructure:"bytesPerToken"`
	Concurrency    int      `json:"concurrency,omitempty" mapstructure:"concurrency"`
	Stdout         bool     `json:"stdout" mapstructure:"stdout"`
	NoClipboard    bool     `json:"noClipboard" mapstructure:"noClipboard"`
	ChunkIndex     int      `json:"chunkIndex" mapstructure:"chunkIndex"`
	Interactive    bool     `json:"interactive" mapstructure:"interactive"`
	Stream         bool     `json:"stream" mapstructure:"stream"`
	MultiStep      bool     `json:"multiStep" mapstructure:"multiStep"`
	ModelContext   int      `json:"modelContext,omitempty" mapstructure:"modelContext"`
	LogFile        string   `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug          bool     `json:"debug" mapstructure:"debug"`
	ConfigPath     string   `json:"-" mapstructure:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		MaxSize:        gather.DefaultMaxSize,
		HeaderMode:     string(contextpack.HeaderInline),
		Tokenizer:      tokenizer.KindTiktoken,
		TokenizerModel: tokenizer.DefaultModel,
		BytesPerToken:  tokenizer.DefaultBytesPerToken,
		ChunkIndex:     -1,
	}
}

// LogFilePath returns the path to the application log file, or "" when file
// logging is off. It is off unless configured.
func (c Config) LogFilePath() string {
	return strings.TrimSpace(c.LogFile)
}

// MaxFileSize returns the per-file size limit in bytes.
func (c Config) MaxFileSize() int64 {
	if c.MaxSize <= 0 {
		return gather.DefaultMaxSize
	}
	return c.MaxSize
}

// HeaderPlacement returns the parsed header mode, defaulting to inline.
func (c Config) HeaderPlacement() contextpack.HeaderMode {
	if strings.TrimSpace(c.HeaderMode) == "" {
		return contextpack.HeaderInline
	}
	return contextpack.HeaderMode(strings.ToLower(strings.TrimSpace(c.HeaderMode)))
}

// TokenizerConfig returns the settings for the token counter.
func (c Config) TokenizerConfig() tokenizer.Config {
	kind := strings.ToLower(strings.TrimSpace(c.Tokenizer))
	if kind == "" {
		kind = tokenizer.KindTiktoken
	}
	return tokenizer.Config{
		Kind:          kind,
		Model:         c.TokenizerModel,
		BytesPerToken: c.BytesPerToken,
	}
}

// PlannerOptions returns the options for the chunk planner.
func (c Config) PlannerOptions() contextpack.Options {
	return contextpack.Options{
		ChunkSize:   c.ChunkSize,
		Escape:      c.EscapeXML,
		HeaderMode:  c.HeaderPlacement(),
		Concurrency: c.Concurrency,
	}
}

// Validate rejects combinations the CLI cannot act on.
func (c Config) Validate() error {
	var problems []string
	if c.ChunkSize < 0 {
		problems = append(problems, fmt.Sprintf("chunkSize must not be negative (got %d)", c.ChunkSize))
	}
	if c.MaxSize < 0 {
		problems = append(problems, fmt.Sprintf("maxSize must not be negative (got %d)", c.MaxSize))
	}
	if !c.HeaderPlacement().Valid() {
		problems = append(problems, fmt.Sprintf("unknown headerMode %q (want inline or separate)", c.HeaderMode))
	}
	switch c.TokenizerConfig().Kind {
	case tokenizer.KindTiktoken, tokenizer.KindApprox:
	default:
		problems = append(problems, fmt.Sprintf("unknown tokenizer %q (want tiktoken or approx)", c.Tokenizer))
	}
	if c.ChunkIndex >= 0 && c.ChunkSize == 0 {
		problems = append(problems, "--chunk-index requires --chunk-size")
	}
	if c.Stream && c.MultiStep {
		problems = append(problems, "only one of --stream or --multi-step can be enabled")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateFile checks a JSON config file against the embedded schema. Files
// with other extensions are left to viper.
func ValidateFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %q: %w", path, err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, strings.Join(msgs, "; "))
	}
	return nil
}
