// internal/delivery/summary.go
package delivery

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
)

// Summary is the end-of-run report.
type Summary struct {
	Files  int
	Tokens int
	Chunks int
	// Copied is the copied chunk index, or -1.
	Copied         int
	ModelContext   int
	Budget         int
	Oversized      []int
	HeaderOversize bool
	HeaderTokens   int
	// Invisible is set when output went neither to stdout nor the clipboard.
	Invisible bool
}

// WriteSummary prints the result line to out and any warnings to errOut.
func WriteSummary(out, errOut io.Writer, s Summary) {
	copied := "none"
	if s.Copied >= 0 {
		copied = strconv.Itoa(s.Copied)
	}
	unit := "chunks"
	if s.Chunks == 1 {
		unit = "chunk"
	}
	fmt.Fprintf(out, "%s %d files • %d tokens • %d %s • copied=%s\n",
		okMark("✔"), s.Files, s.Tokens, s.Chunks, unit, copied)

	for _, idx := range s.Oversized {
		fmt.Fprintln(errOut, warnText(fmt.Sprintf("Warning: chunk %d exceeds the %d token budget (a single part could not be split further)", idx, s.Budget)))
	}
	if s.HeaderOversize {
		fmt.Fprintln(errOut, warnText(fmt.Sprintf("Warning: the context header alone costs %d tokens, over the %d token budget", s.HeaderTokens, s.Budget)))
	}
	if s.Invisible {
		fmt.Fprintln(errOut, "Note: neither --stdout nor clipboard copy requested; nothing visible.")
	}
	if s.ModelContext > 0 && s.Tokens > s.ModelContext {
		fmt.Fprintln(errOut, warnText(fmt.Sprintf("Warning: token count %d exceeds model context limit %d", s.Tokens, s.ModelContext)))
	}
}
