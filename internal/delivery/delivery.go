// internal/delivery/delivery.go
package delivery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/mwiater/contextgather/internal/contextpack"
)

// ErrChunkIndexOutOfRange is returned when --chunk-index names a chunk that
// does not exist.
var ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

// Clipboard is the system clipboard as seen by delivery.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// SystemClipboard returns the OS clipboard.
func SystemClipboard() Clipboard { return systemClipboard{} }

// Options mirrors the delivery flags.
type Options struct {
	Stdout      bool
	NoClipboard bool
	// ChunkIndex selects the chunk to copy. Negative means the first chunk.
	ChunkIndex int
	Escape     bool
}

// Deliverer writes chunks to Out, copies them to Clipboard, and talks to the
// user on Err. In feeds the interactive loops.
type Deliverer struct {
	Out       io.Writer
	Err       io.Writer
	In        io.Reader
	Clipboard Clipboard
	Logger    *zap.Logger
	Opts      Options
	Now       func() time.Time
}

// New returns a Deliverer wired to the process's standard streams and the
// system clipboard.
func New(opts Options, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{
		Out:       os.Stdout,
		Err:       os.Stderr,
		In:        os.Stdin,
		Clipboard: SystemClipboard(),
		Logger:    logger,
		Opts:      opts,
		Now:       time.Now,
	}
}

// copy puts text on the clipboard. Failures are reported and swallowed.
func (d *Deliverer) copy(text string) bool {
	if d.Opts.NoClipboard || d.Clipboard == nil {
		return false
	}
	if err := d.Clipboard.WriteAll(text); err != nil {
		d.Logger.Warn("clipboard copy failed", zap.Error(err))
		return false
	}
	return true
}

// Emit prints every chunk when Stdout is set and copies the selected chunk.
// It returns the index that was copied, or -1.
func (d *Deliverer) Emit(chunks []contextpack.Chunk) (int, error) {
	index := d.Opts.ChunkIndex
	if index < 0 {
		index = 0
	}
	if index >= len(chunks) {
		return -1, fmt.Errorf("%w: --chunk-index %d (0..%d)", ErrChunkIndexOutOfRange, index, len(chunks)-1)
	}
	if d.Opts.Stdout {
		for _, c := range chunks {
			if _, err := io.WriteString(d.Out, c.Text); err != nil {
				return -1, err
			}
		}
	}
	if d.Opts.NoClipboard {
		return -1, nil
	}
	d.copy(chunks[index].Text)
	return index, nil
}

// Stream shows one chunk at a time. An empty line advances, wrapping after the
// last chunk; a number jumps; q quits. EOF on In ends the loop.
func (d *Deliverer) Stream(chunks []contextpack.Chunk) error {
	total := len(chunks)
	if total == 0 {
		return nil
	}
	fmt.Fprintf(d.Err, "▲ Streaming %d chunks (0..%d).\n", total, total-1)
	fmt.Fprintln(d.Err, "Commands: press Enter for next chunk, number to jump, or 'q' to quit.")

	scanner := bufio.NewScanner(d.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	idx := 0
	for {
		text := chunks[idx].Text
		if d.Opts.Stdout {
			if _, err := io.WriteString(d.Out, text); err != nil {
				return err
			}
		}
		if d.copy(text) {
			fmt.Fprintf(d.Err, "✔ copied chunk %d\n", idx)
		}
		fmt.Fprintf(d.Err, "Enter chunk # (0..%d) or 'q' to quit: ", total-1)
		if !scanner.Scan() {
			fmt.Fprintln(d.Err)
			return scanner.Err()
		}
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case strings.EqualFold(cmd, "q"):
			return nil
		case cmd == "":
			idx = (idx + 1) % total
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil || n < 0 || n >= total {
				fmt.Fprintf(d.Err, "Invalid chunk: %s\n", cmd)
				continue
			}
			idx = n
		}
	}
}

// MultiStep hands over the header first, then serves single files on request
// by id or glob until q or EOF.
func (d *Deliverer) MultiStep(plan *contextpack.Plan) error {
	header := plan.HeaderText
	if header == "" {
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		h := contextpack.BuildHeader(plan.TotalChunks, plan.Budget, plan.FileMap, now())
		header = contextpack.RenderHeader(h, plan.Escape)
	}
	if d.Opts.Stdout {
		if _, err := io.WriteString(d.Out, header); err != nil {
			return err
		}
	}
	if d.copy(header) {
		fmt.Fprintln(d.Err, "✔ copied header")
	}
	fmt.Fprintln(d.Err, "Commands: enter file ids, file paths, or glob patterns; type 'q' to quit.")

	scanner := bufio.NewScanner(d.In)
	for {
		fmt.Fprint(d.Err, "Request file id or glob (or 'q' to quit): ")
		if !scanner.Scan() {
			fmt.Fprintln(d.Err)
			return scanner.Err()
		}
		cmd := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(cmd, "q") {
			return nil
		}
		if cmd == "" {
			continue
		}
		ids, msg := selectFiles(plan.Files, cmd)
		if msg != "" {
			fmt.Fprintln(d.Err, msg)
			continue
		}
		for _, id := range ids {
			f := &plan.Files[id]
			text := contextpack.RenderFragment(f, f.Content, 1, 1, plan.Escape)
			if d.Opts.Stdout {
				if _, err := io.WriteString(d.Out, text); err != nil {
					return err
				}
			}
			if d.copy(text) {
				fmt.Fprintf(d.Err, "✔ copied file id %d\n", id)
			}
		}
	}
}

// selectFiles resolves a request to file ids. A non-empty message means the
// request matched nothing.
func selectFiles(files []contextpack.SourceFile, cmd string) ([]int, string) {
	if n, err := strconv.Atoi(cmd); err == nil {
		if n < 0 || n >= len(files) {
			return nil, fmt.Sprintf("Invalid file id: %d", n)
		}
		return []int{n}, ""
	}
	pattern := strings.ReplaceAll(cmd, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Sprintf("Invalid request: %s", cmd)
	}
	var ids []int
	for i, f := range files {
		if doublestar.MatchUnvalidated(pattern, f.Path) {
			ids = append(ids, i)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Sprintf("No files match pattern: %s", cmd)
	}
	return ids, ""
}
