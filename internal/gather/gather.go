// internal/gather/gather.go
// Package gather discovers, filters and reads the files handed to the planner.
package gather

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mwiater/contextgather/internal/contextpack"
)

const (
	// DefaultMaxSize is the per-file size limit in bytes.
	DefaultMaxSize int64 = 1024 * 1024
	// binarySample is how many leading bytes are checked for valid UTF-8.
	binarySample = 4096
)

// ErrInvalidExcludes is returned when every exclude pattern fails to parse.
var ErrInvalidExcludes = errors.New("every --exclude pattern was invalid")

// Gatherer reads from Fs. A nil Logger discards warnings.
type Gatherer struct {
	Fs      afero.Fs
	Logger  *zap.Logger
	MaxSize int64
}

// New returns a Gatherer over fsys.
func New(fsys afero.Fs, logger *zap.Logger, maxSize int64) *Gatherer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Gatherer{Fs: fsys, Logger: logger, MaxSize: maxSize}
}

func (g *Gatherer) log() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// ExpandPaths expands glob arguments. An argument that is not a pattern, or a
// pattern with no matches, is kept as a literal path.
func (g *Gatherer) ExpandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		pattern := filepath.ToSlash(arg)
		if !hasMeta(pattern) {
			out = append(out, filepath.Clean(arg))
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %s: %w", pattern, doublestar.ErrBadPattern)
		}
		matches, err := g.glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			out = append(out, filepath.Clean(arg))
			continue
		}
		out = append(out, matches...)
	}
	return out, nil
}

func (g *Gatherer) glob(pattern string) ([]string, error) {
	base, rest := doublestar.SplitPattern(strings.TrimPrefix(pattern, "./"))
	fsys := g.Fs
	if base != "." {
		fsys = afero.NewBasePathFs(g.Fs, filepath.FromSlash(base))
	}
	matches, err := doublestar.Glob(afero.NewIOFS(fsys), rest)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if base != "." {
			m = path.Join(base, m)
		}
		out = append(out, filepath.FromSlash(m))
	}
	sort.Strings(out)
	return out, nil
}

// Candidates lists every file under paths. Directories are walked with their
// .gitignore applied and hidden entries skipped; plain files are taken as is.
// The result is cleaned, sorted and free of duplicates.
func (g *Gatherer) Candidates(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, root := range paths {
		info, err := g.Fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		matcher := g.gitignore(root)
		err = afero.Walk(g.Fs, root, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				g.log().Warn("could not process entry", zap.String("path", p), zap.Error(err))
				return nil
			}
			if p == root {
				return nil
			}
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if strings.HasPrefix(info.Name(), ".") || ignored(matcher, rel, info.IsDir()) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.Mode().IsRegular() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (g *Gatherer) gitignore(root string) *ignore.GitIgnore {
	data, err := afero.ReadFile(g.Fs, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

func ignored(matcher *ignore.GitIgnore, rel string, dir bool) bool {
	if matcher == nil {
		return false
	}
	if dir && matcher.MatchesPath(rel+"/") {
		return true
	}
	return matcher.MatchesPath(rel)
}

// Preselected reports which candidates fall under one of the user's paths.
func Preselected(candidates, userPaths []string) map[string]bool {
	roots := make([]string, 0, len(userPaths))
	for _, p := range userPaths {
		roots = append(roots, filepath.Clean(p))
	}
	out := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		for _, r := range roots {
			if c == r || r == "." || strings.HasPrefix(c, r+string(filepath.Separator)) {
				out[c] = true
				break
			}
		}
	}
	return out
}

// ApplyExcludes drops paths matching any valid pattern. Patterns match the
// slash form of the path relative to root as well as the path as given.
// Invalid patterns are logged and ignored unless all of them are invalid.
func (g *Gatherer) ApplyExcludes(paths []string, patterns []string, root string) ([]string, error) {
	if len(patterns) == 0 {
		return paths, nil
	}
	var valid, bad []string
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if doublestar.ValidatePattern(p) {
			valid = append(valid, p)
		} else {
			bad = append(bad, p)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExcludes, strings.Join(bad, ", "))
	}
	for _, p := range bad {
		g.log().Warn("ignoring invalid exclude pattern", zap.String("pattern", p))
	}

	out := paths[:0:0]
	for _, p := range paths {
		slash := filepath.ToSlash(p)
		rel := slash
		if root != "" {
			if r, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(r, "..") {
				rel = filepath.ToSlash(r)
			}
		}
		if excluded(valid, rel) || excluded(valid, slash) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Omit drops paths that resolve to the same file as any of skip. Empty skip
// entries are ignored.
func Omit(paths []string, skip ...string) []string {
	var drop []string
	for _, s := range skip {
		if s == "" {
			continue
		}
		if abs, err := filepath.Abs(s); err == nil {
			drop = append(drop, abs)
		}
	}
	if len(drop) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err == nil && slices.Contains(drop, abs) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func excluded(patterns []string, name string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}

// Collect reads every path into a SourceFile. Files over MaxSize and files
// whose leading bytes are not valid UTF-8 are skipped with a warning. Any other
// read failure aborts.
func (g *Gatherer) Collect(paths []string) ([]contextpack.SourceFile, error) {
	files := make([]contextpack.SourceFile, 0, len(paths))
	for _, p := range paths {
		info, err := g.Fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if info.Size() > g.MaxSize {
			g.log().Warn("file exceeds max size, skipping",
				zap.String("path", p), zap.Int64("size", info.Size()), zap.Int64("max", g.MaxSize))
			continue
		}
		data, err := afero.ReadFile(g.Fs, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if isBinary(data) {
			g.log().Warn("file appears to be binary, skipping", zap.String("path", p))
			continue
		}
		content := string(data)
		if !utf8.ValidString(content) {
			content = strings.ToValidUTF8(content, string(utf8.RuneError))
			g.log().Warn("file contains invalid UTF-8, replacing bad bytes with U+FFFD", zap.String("path", p))
		}
		slash := filepath.ToSlash(p)
		files = append(files, contextpack.SourceFile{
			Folder:  path.Dir(slash),
			Path:    slash,
			Content: content,
		})
	}
	return files, nil
}

// isBinary checks a leading sample for invalid UTF-8. A multi-byte rune cut
// off by the sample boundary does not count.
func isBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySample {
		sample = sample[:binarySample]
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	return !utf8.Valid(sample)
}

// IsNotExist reports whether err came from a missing input path.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
