// internal/commands/plan.go
package contextgather

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/contextgather/internal/contextpack"
	"github.com/mwiater/contextgather/internal/util"
)

var planOutput string

// planCmd prints the chunk plan as YAML without delivering anything.
var planCmd = &cobra.Command{
	Use:   "plan [paths...]",
	Short: "Print the chunk plan as YAML",
	Long: `The 'plan' command gathers and plans the given paths exactly like the root command,
then prints the resulting chunks, fragments, token costs and file map as YAML instead of
rendering XML. Use --output to write the manifest to a file.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "write the manifest to this file instead of stdout")
	rootCmd.AddCommand(planCmd)
}

type planManifest struct {
	Budget       int                        `yaml:"budget"`
	HeaderMode   string                     `yaml:"headerMode"`
	TotalChunks  int                        `yaml:"totalChunks"`
	Tokens       int                        `yaml:"tokens"`
	HeaderTokens int                        `yaml:"headerTokens,omitempty"`
	Oversized    []int                      `yaml:"oversized,omitempty"`
	FileMap      []contextpack.FileMapEntry `yaml:"fileMap"`
	Chunks       []chunkManifest            `yaml:"chunks"`
}

type chunkManifest struct {
	Index        int                `yaml:"index"`
	Tokens       int                `yaml:"tokens"`
	HeaderTokens int                `yaml:"headerTokens,omitempty"`
	Overflow     bool               `yaml:"overflow,omitempty"`
	Fragments    []fragmentManifest `yaml:"fragments"`
}

type fragmentManifest struct {
	Path   string `yaml:"path"`
	Tokens int    `yaml:"tokens"`
	Part   int    `yaml:"part,omitempty"`
	Parts  int    `yaml:"parts,omitempty"`
	Lines  string `yaml:"lines,omitempty"`
}

func newPlanManifest(plan *contextpack.Plan) planManifest {
	m := planManifest{
		Budget:       plan.Budget,
		HeaderMode:   string(plan.HeaderMode),
		TotalChunks:  plan.TotalChunks,
		Tokens:       plan.TotalTokens(),
		HeaderTokens: plan.HeaderTokens,
		FileMap:      plan.FileMap,
		Chunks:       make([]chunkManifest, 0, len(plan.Chunks)),
	}
	for _, c := range plan.Oversized() {
		m.Oversized = append(m.Oversized, c.Index)
	}
	for _, c := range plan.Chunks {
		cm := chunkManifest{
			Index:        c.Index,
			Tokens:       c.Tokens,
			HeaderTokens: c.HeaderTokens,
			Overflow:     c.Overflow,
		}
		for _, f := range c.Fragments {
			fm := fragmentManifest{Path: f.File.Path, Tokens: f.Tokens}
			if f.Split() {
				fm.Part = f.Part.Index
				fm.Parts = f.Part.Count
				fm.Lines = fmt.Sprintf("%d-%d", f.Part.StartLine+1, f.Part.EndLine)
			}
			cm.Fragments = append(cm.Fragments, fm)
		}
		m.Chunks = append(m.Chunks, cm)
	}
	return m
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newPlanManifest(plan)); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	if planOutput != "" {
		if err := util.WriteFile(planOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✔ plan written to %s\n", planOutput)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
