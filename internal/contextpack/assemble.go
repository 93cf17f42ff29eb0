package contextpack

import (
	"fmt"
	"sort"
	"strings"
)

// Chunk is one deliverable piece of the wire output.
type Chunk struct {
	// Index is 0 for a separate header, otherwise the 1-based body index.
	Index int
	Text  string
	// Tokens is the oracle's count of Text.
	Tokens   int
	Overflow bool
	// Header is set when the chunk carries the context header.
	Header bool
}

// Assemble renders plan into its wire chunks, in delivery order.
func Assemble(plan *Plan) []Chunk {
	if plan.TotalChunks <= 1 {
		var frags []Fragment
		single := Chunk{}
		for _, c := range plan.Chunks {
			frags = append(frags, c.Fragments...)
			single.Tokens += c.Tokens
			single.Overflow = single.Overflow || c.Overflow
		}
		single.Text = renderContainer(frags, "", plan.Escape)
		return []Chunk{single}
	}

	out := make([]Chunk, 0, len(plan.Chunks)+1)
	if plan.HeaderMode == HeaderSeparate {
		out = append(out, Chunk{
			Index:    0,
			Text:     plan.HeaderText,
			Tokens:   plan.HeaderTokens,
			Overflow: plan.HeaderOversize(),
			Header:   true,
		})
	}
	for i, c := range plan.Chunks {
		text := renderContainer(c.Fragments, fmt.Sprintf("%d/%d", c.Index, plan.TotalChunks), plan.Escape)
		chunk := Chunk{Index: c.Index, Tokens: c.Tokens, Overflow: c.Overflow}
		if i == 0 && plan.HeaderMode == HeaderInline {
			text = plan.HeaderText + text
			chunk.Header = true
		}
		chunk.Text = text
		out = append(out, chunk)
	}
	return out
}

// Reassemble rebuilds every file's content from the plan's parts, keyed by
// path.
func Reassemble(plan *Plan) map[string]string {
	parts := make(map[string][]Part, len(plan.Files))
	for _, c := range plan.Chunks {
		for _, f := range c.Fragments {
			parts[f.File.Path] = append(parts[f.File.Path], f.Part)
		}
	}
	out := make(map[string]string, len(parts))
	for p, ps := range parts {
		sort.Slice(ps, func(i, j int) bool { return ps[i].Index < ps[j].Index })
		var b strings.Builder
		for _, part := range ps {
			b.WriteString(part.Content)
		}
		out[p] = b.String()
	}
	for _, f := range plan.Files {
		if _, ok := out[f.Path]; !ok {
			out[f.Path] = ""
		}
	}
	return out
}
