// internal/commands/run.go
package contextgather

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwiater/contextgather/internal/appconfig"
	"github.com/mwiater/contextgather/internal/contextpack"
	"github.com/mwiater/contextgather/internal/delivery"
	"github.com/mwiater/contextgather/internal/gather"
	"github.com/mwiater/contextgather/internal/logging"
	"github.com/mwiater/contextgather/internal/tokenizer"
	"github.com/mwiater/contextgather/internal/tui"
)

// Swappable in tests.
var (
	pickFiles    = tui.SelectFiles
	newCounter   = tokenizer.New
	newClipboard = delivery.SystemClipboard
)

// loadedConfig returns the merged configuration, or the defaults before the
// pre-run hook has fired.
func loadedConfig() appconfig.Config {
	if cfg := GetConfig(); cfg != nil {
		return *cfg
	}
	return appconfig.Defaults()
}

// collectFiles runs the gather half of the pipeline. A nil result with no
// error means the user left the picker without choosing anything.
func collectFiles(cmd *cobra.Command, cfg appconfig.Config, args []string) ([]contextpack.SourceFile, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	logger := logging.L()
	g := gather.New(appFs, logger, cfg.MaxFileSize())

	paths, err := g.ExpandPaths(args)
	if err != nil {
		return nil, err
	}
	candidates, err := g.Candidates(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("candidates gathered", zap.Int("count", len(candidates)), zap.Strings("paths", paths))

	if cfg.Interactive {
		selected, err := pickFiles(candidates, gather.Preselected(candidates, paths))
		if err != nil {
			return nil, err
		}
		if len(selected) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No files selected.")
			return nil, nil
		}
		candidates = selected
	}

	candidates = gather.Omit(candidates, cfg.LogFilePath())

	root, _ := os.Getwd()
	kept, err := g.ApplyExcludes(candidates, cfg.Exclude, root)
	if err != nil {
		return nil, err
	}
	return g.Collect(kept)
}

// buildPlan counts and packs files under cfg.
func buildPlan(ctx context.Context, cfg appconfig.Config, files []contextpack.SourceFile) (*contextpack.Plan, error) {
	counter, err := newCounter(cfg.TokenizerConfig())
	if err != nil {
		return nil, err
	}
	planner, err := contextpack.NewPlanner(counter, cfg.PlannerOptions())
	if err != nil {
		return nil, err
	}
	plan, err := planner.Plan(ctx, files)
	if err != nil {
		return nil, err
	}
	logging.Debug("plan built",
		zap.Int("files", len(plan.Files)),
		zap.Int("chunks", plan.TotalChunks),
		zap.Int("budget", plan.Budget),
		zap.Int("header_tokens", plan.HeaderTokens))
	return plan, nil
}

// runGather is the root command: gather, plan, assemble, deliver, summarise.
func runGather(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig()
	files, err := collectFiles(cmd, cfg, args)
	if err != nil {
		return err
	}
	if files == nil && cfg.Interactive {
		return nil
	}

	plan, err := buildPlan(cmd.Context(), cfg, files)
	if err != nil {
		return err
	}
	chunks := contextpack.Assemble(plan)

	d := delivery.New(delivery.Options{
		Stdout:      cfg.Stdout,
		NoClipboard: cfg.NoClipboard,
		ChunkIndex:  cfg.ChunkIndex,
		Escape:      cfg.EscapeXML,
	}, logging.L())
	d.Out = cmd.OutOrStdout()
	d.Err = cmd.ErrOrStderr()
	d.In = cmd.InOrStdin()
	d.Clipboard = newClipboard()

	copied := -1
	switch {
	case cfg.MultiStep:
		if err := d.MultiStep(plan); err != nil {
			return err
		}
	case cfg.Stream:
		if err := d.Stream(chunks); err != nil {
			return err
		}
	default:
		copied, err = d.Emit(chunks)
		if err != nil {
			return err
		}
	}

	summary := delivery.Summary{
		Files:          len(plan.Files),
		Tokens:         plan.TotalTokens(),
		Chunks:         len(chunks),
		Copied:         copied,
		ModelContext:   cfg.ModelContext,
		Budget:         plan.Budget,
		HeaderOversize: plan.HeaderOversize(),
		HeaderTokens:   plan.HeaderTokens,
		Invisible:      !cfg.Stream && !cfg.MultiStep && !cfg.Stdout && cfg.NoClipboard,
	}
	for _, c := range plan.Oversized() {
		// the header warning already covers a chunk 1 pushed over by it
		if c.HeaderTokens > 0 && summary.HeaderOversize {
			continue
		}
		summary.Oversized = append(summary.Oversized, c.Index)
	}
	delivery.WriteSummary(cmd.ErrOrStderr(), cmd.ErrOrStderr(), summary)
	return nil
}
