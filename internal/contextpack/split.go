// internal/contextpack/split.go
package contextpack

import (
	"fmt"
	"strings"
)

// maxSplitRounds bounds the split/relabel loop for one file.
const maxSplitRounds = 16

type lineRange struct {
	start, end int
}

// splitLines cuts content after every '\n', keeping terminators. A final line
// without a terminator is kept as is; empty content yields no lines.
func splitLines(content string) []string {
	lines := strings.SplitAfter(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func joinLines(lines []string, r lineRange) string {
	return strings.Join(lines[r.start:r.end], "")
}

// splitFile partitions an oversize file into line-aligned parts. Boundaries
// are computed against a guessed part count, then recomputed with the actual
// count until the two agree, since the part="i/n" label is part of every
// measured render.
func (p *Planner) splitFile(file *SourceFile) ([]Fragment, error) {
	lines := splitLines(file.Content)
	guess := 2
	if len(lines) <= 1 {
		guess = 1
	}
	for round := 0; round < maxSplitRounds; round++ {
		ranges, err := p.partition(file, lines, guess)
		if err != nil {
			return nil, err
		}
		if len(ranges) != guess {
			guess = len(ranges)
			continue
		}
		return p.labelParts(file, lines, ranges)
	}
	return nil, fmt.Errorf("%s: %w", file.Path, ErrSplitNotConverged)
}

// partition greedily grows each part one line at a time and closes it just
// before the line that would stop it fitting a chunk on its own. A line that
// alone does not fit becomes its own part.
func (p *Planner) partition(file *SourceFile, lines []string, total int) ([]lineRange, error) {
	var out []lineRange
	start := 0
	var body strings.Builder
	for i := 0; i < len(lines); {
		candidate := body.String() + lines[i]
		text := RenderFragment(file, candidate, len(out)+1, total, p.opts.Escape)
		fits, err := p.fitsAlone(file, text)
		if err != nil {
			return nil, err
		}
		if fits {
			body.WriteString(lines[i])
			i++
			continue
		}
		if start == i {
			out = append(out, lineRange{start: i, end: i + 1})
			i++
			start = i
			body.Reset()
			continue
		}
		out = append(out, lineRange{start: start, end: i})
		start = i
		body.Reset()
	}
	if start < len(lines) {
		out = append(out, lineRange{start: start, end: len(lines)})
	}
	if len(out) == 0 {
		out = append(out, lineRange{})
	}
	return out, nil
}

// labelParts stamps index/count on the final boundaries and measures each
// part with its final label.
func (p *Planner) labelParts(file *SourceFile, lines []string, ranges []lineRange) ([]Fragment, error) {
	count := len(ranges)
	frags := make([]Fragment, 0, count)
	for i, r := range ranges {
		content := joinLines(lines, r)
		text := RenderFragment(file, content, i+1, count, p.opts.Escape)
		tokens, err := countText(p.counter, text)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", file.Path, err)
		}
		frags = append(frags, Fragment{
			File: file,
			Part: Part{
				FileID:    file.ID,
				StartLine: r.start,
				EndLine:   r.end,
				Index:     i + 1,
				Count:     count,
				Content:   content,
			},
			Text:   text,
			Tokens: tokens,
		})
	}
	return frags, nil
}
