// internal/tokenizer/tokenizer.go
// Package tokenizer provides the token counters the planner measures with.
package tokenizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/mwiater/contextgather/internal/contextpack"
)

const (
	// KindTiktoken selects a BPE counter from tiktoken-go.
	KindTiktoken = "tiktoken"
	// KindApprox selects the offline bytes-per-token estimator.
	KindApprox = "approx"

	// DefaultModel is used when no model or encoding is configured.
	DefaultModel = "gpt-5.2"
	// FallbackEncoding is used for models tiktoken does not know.
	FallbackEncoding = tiktoken.MODEL_O200K_BASE
	// DefaultBytesPerToken is the approx estimator's default ratio.
	DefaultBytesPerToken = 4
)

// Counter is the planner's token oracle.
type Counter = contextpack.Counter

// ErrUnknownKind is returned by New for an unrecognised tokenizer kind.
var ErrUnknownKind = errors.New("tokenizer: unknown kind")

// Config selects and configures a counter.
type Config struct {
	Kind          string
	Model         string
	BytesPerToken int
}

// New builds the counter described by cfg. An empty kind means tiktoken.
func New(cfg Config) (Counter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindTiktoken:
		t, err := NewTiktoken(cfg.Model)
		if err != nil {
			return nil, err
		}
		return t, nil
	case KindApprox:
		return NewApprox(cfg.BytesPerToken), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

var dashReplacer = strings.NewReplacer(
	"‐", "-",
	"‑", "-",
	"‒", "-",
	"–", "-",
	"—", "-",
	"−", "-",
)

// NormalizeModel lowercases a model name and folds typographic dashes into
// ASCII hyphens, so names pasted from documentation still resolve.
func NormalizeModel(model string) string {
	return dashReplacer.Replace(strings.ToLower(strings.TrimSpace(model)))
}

// Tiktoken counts tokens with a tiktoken BPE encoding. Special tokens are
// counted as single tokens rather than rejected.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	model    string
	encoding string
}

var knownEncodings = []string{
	tiktoken.MODEL_O200K_BASE,
	tiktoken.MODEL_CL100K_BASE,
	tiktoken.MODEL_P50K_BASE,
	tiktoken.MODEL_P50K_EDIT,
	tiktoken.MODEL_R50K_BASE,
}

// ResolveEncoding maps model to the encoding NewTiktoken will load. model is
// tried as a model name first, then as an encoding name, and anything else
// gets FallbackEncoding. An empty model means DefaultModel.
func ResolveEncoding(model string) (name, encoding string) {
	name = NormalizeModel(model)
	if name == "" {
		name = DefaultModel
	}
	if enc := encodingForModel(name); slices.Contains(knownEncodings, enc) {
		return name, enc
	}
	if slices.Contains(knownEncodings, name) {
		return name, name
	}
	return name, FallbackEncoding
}

// NewTiktoken loads the encoding ResolveEncoding picks for model.
func NewTiktoken(model string) (*Tiktoken, error) {
	name, encoding := ResolveEncoding(model)
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc, model: name, encoding: encoding}, nil
}

func encodingForModel(model string) string {
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return enc
	}
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return enc
		}
	}
	return ""
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) (int, error) {
	return len(t.enc.Encode(text, []string{"all"}, nil)), nil
}

// Model is the normalised model name the counter was built for.
func (t *Tiktoken) Model() string { return t.model }

// Encoding is the resolved encoding name.
func (t *Tiktoken) Encoding() string { return t.encoding }

// Approx estimates tokens as ceil(bytes / BytesPerToken).
type Approx struct {
	BytesPerToken int
}

// NewApprox returns an estimator; non-positive ratios use the default.
func NewApprox(bytesPerToken int) Approx {
	if bytesPerToken <= 0 {
		bytesPerToken = DefaultBytesPerToken
	}
	return Approx{BytesPerToken: bytesPerToken}
}

// Count never fails.
func (a Approx) Count(text string) (int, error) {
	bpt := a.BytesPerToken
	if bpt <= 0 {
		bpt = DefaultBytesPerToken
	}
	return (len(text) + bpt - 1) / bpt, nil
}
