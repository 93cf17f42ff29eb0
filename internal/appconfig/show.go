package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"

	"github.com/mwiater/contextgather/internal/tokenizer"
)

// ShowConfig prints the current configuration summary. With debug set the
// merged struct is dumped as well.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	c := fallback
	if cfg != nil {
		c = *cfg
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Chunk Size:      %s\n", budgetLabel(c.ChunkSize))
	fmt.Fprintf(out, "  Header Mode:     %s\n", c.HeaderPlacement())
	fmt.Fprintf(out, "  Escape XML:      %v\n", c.EscapeXML)
	fmt.Fprintf(out, "  Max File Size:   %d bytes\n", c.MaxFileSize())
	fmt.Fprintf(out, "  Exclude:         %v\n", c.Exclude)
	tk := c.TokenizerConfig()
	fmt.Fprintf(out, "  Tokenizer:       %s\n", tk.Kind)
	if tk.Kind == tokenizer.KindApprox {
		fmt.Fprintf(out, "  Bytes Per Token: %d\n", tk.BytesPerToken)
	} else {
		fmt.Fprintf(out, "  Tokenizer Model: %s\n", tk.Model)
	}
	fmt.Fprintf(out, "  Stdout:          %v\n", c.Stdout)
	fmt.Fprintf(out, "  No Clipboard:    %v\n", c.NoClipboard)
	fmt.Fprintf(out, "  Interactive:     %v\n", c.Interactive)
	fmt.Fprintf(out, "  Stream:          %v\n", c.Stream)
	fmt.Fprintf(out, "  Multi-step:      %v\n", c.MultiStep)
	if c.ModelContext > 0 {
		fmt.Fprintf(out, "  Model Context:   %d\n", c.ModelContext)
	}
	logFile := c.LogFilePath()
	if logFile == "" {
		logFile = "off"
	}
	fmt.Fprintf(out, "  Log File:        %s\n", logFile)
	fmt.Fprintf(out, "  Debug:           %v\n", c.Debug)

	if c.Debug {
		fmt.Fprintln(out)
		pp.Fprintln(out, c)
	}
}

func budgetLabel(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d tokens", n)
}
