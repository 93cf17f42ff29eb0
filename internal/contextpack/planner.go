// internal/contextpack/planner.go
package contextpack

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxPlanRounds bounds inline header fitting.
const maxPlanRounds = 8

// Options configures a Planner.
type Options struct {
	// ChunkSize is the per-chunk token budget. Zero disables chunking.
	ChunkSize int
	// Escape turns on entity escaping of file content and attribute values.
	Escape bool
	// HeaderMode defaults to HeaderInline.
	HeaderMode HeaderMode
	// Concurrency bounds parallel oracle calls. Defaults to GOMAXPROCS.
	Concurrency int
	// Now supplies the header timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Planner turns an ordered file set into a Plan.
type Planner struct {
	counter Counter
	opts    Options
}

// NewPlanner validates opts and fills in defaults.
func NewPlanner(counter Counter, opts Options) (*Planner, error) {
	if counter == nil {
		return nil, ErrNilCounter
	}
	if opts.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBudget, opts.ChunkSize)
	}
	if opts.HeaderMode == "" {
		opts.HeaderMode = HeaderInline
	}
	if !opts.HeaderMode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeaderMode, opts.HeaderMode)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Planner{counter: counter, opts: opts}, nil
}

// Plan orders files, splits the ones that do not fit, packs the fragments into
// chunks and, when more than one chunk results, fits the header. The returned
// plan is never partial: any oracle failure aborts the whole call.
func (p *Planner) Plan(ctx context.Context, files []SourceFile) (*Plan, error) {
	ordered := Order(files)

	perFile, err := p.fragments(ctx, ordered)
	if err != nil {
		return nil, err
	}

	var flat []Fragment
	split := false
	fileMap := make([]FileMapEntry, len(ordered))
	for i, frags := range perFile {
		entry := FileMapEntry{ID: ordered[i].ID, Path: ordered[i].Path, Parts: len(frags)}
		for _, f := range frags {
			entry.Tokens += f.Tokens
		}
		if len(frags) > 1 {
			split = true
		}
		fileMap[i] = entry
		flat = append(flat, frags...)
	}

	plan := &Plan{
		Files:      ordered,
		FileMap:    fileMap,
		Budget:     p.opts.ChunkSize,
		HeaderMode: p.opts.HeaderMode,
		Escape:     p.opts.Escape,
	}

	chunks, err := p.pack(flat, 0, "", 0)
	if err != nil {
		return nil, err
	}
	if len(chunks) <= 1 && !split {
		plan.Chunks = chunks
		plan.TotalChunks = 1
		return plan, nil
	}

	now := p.opts.Now()
	total := len(chunks) + 1

	// Every chunk="i/T" label and the header's own total depend on T, so pack
	// again until the chunk count agrees with it.
	for round := 0; round < maxPlanRounds; round++ {
		if err := p.attachHeader(plan, total, now); err != nil {
			return nil, err
		}
		header, reserve := "", 0
		if p.opts.HeaderMode == HeaderInline {
			header, reserve = plan.HeaderText, plan.HeaderTokens
		}
		chunks, err = p.pack(flat, total, header, reserve)
		if err != nil {
			return nil, err
		}
		if len(chunks)+1 == total {
			plan.Chunks = chunks
			plan.TotalChunks = total
			if header != "" {
				plan.headerFloor, err = p.headerFloor(header, total)
				if err != nil {
					return nil, err
				}
			}
			return plan, nil
		}
		total = len(chunks) + 1
	}
	return nil, fmt.Errorf("%w after %d rounds", ErrPlanNotConverged, maxPlanRounds)
}

func (p *Planner) attachHeader(plan *Plan, total int, now time.Time) error {
	header := BuildHeader(total, p.opts.ChunkSize, plan.FileMap, now)
	text := RenderHeader(header, p.opts.Escape)
	tokens, err := countText(p.counter, text)
	if err != nil {
		return fmt.Errorf("count header: %w", err)
	}
	plan.Header = &header
	plan.HeaderText = text
	plan.HeaderTokens = tokens
	return nil
}

// fragments measures every file in parallel. Results keep file order.
func (p *Planner) fragments(ctx context.Context, files []SourceFile) ([][]Fragment, error) {
	out := make([][]Fragment, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range files {
		file := &files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frags, err := p.fileFragments(file)
			if err != nil {
				return err
			}
			out[i] = frags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Planner) fileFragments(file *SourceFile) ([]Fragment, error) {
	text := RenderFragment(file, file.Content, 1, 1, p.opts.Escape)
	tokens, err := countText(p.counter, text)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", file.Path, err)
	}
	frag := Fragment{
		File: file,
		Part: Part{
			FileID:  file.ID,
			EndLine: len(splitLines(file.Content)),
			Index:   1,
			Count:   1,
			Content: file.Content,
		},
		Text:   text,
		Tokens: tokens,
	}
	if p.opts.ChunkSize == 0 {
		return []Fragment{frag}, nil
	}
	fits, err := p.fitsAlone(file, text)
	if err != nil {
		return nil, err
	}
	if fits {
		return []Fragment{frag}, nil
	}
	return p.splitFile(file)
}

// widestPosition stands in for the chunk="i/T" label when a fragment is
// measured before the chunk count is known.
const widestPosition = "99999/99999"

// fitsAlone reports whether text fits the budget as the only fragment of a
// chunk, container and folder wrapper included.
func (p *Planner) fitsAlone(file *SourceFile, text string) (bool, error) {
	solo := renderContainer([]Fragment{{File: file, Text: text}}, widestPosition, p.opts.Escape)
	cost, err := countText(p.counter, solo)
	if err != nil {
		return false, fmt.Errorf("count %s: %w", file.Path, err)
	}
	return cost <= p.opts.ChunkSize, nil
}

// headerFloor measures the inline header followed by an empty chunk 1
// container, the least chunk 1 can cost.
func (p *Planner) headerFloor(header string, total int) (int, error) {
	cost, err := countText(p.counter, header+renderContainer(nil, position(1, total), p.opts.Escape))
	if err != nil {
		return 0, fmt.Errorf("count header: %w", err)
	}
	return cost, nil
}

func position(index, total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", index, total)
}

// pack folds fragments into chunks in order. A chunk's cost is the count of
// its rendered text, container and folder wrappers included, with header
// prepended to chunk 1. total sets the chunk="i/T" labels; zero renders the
// single-chunk form. Chunk 1 may carry the header alone when the header fits
// but the first fragment does not fit beside it. Any other chunk holds at
// least one fragment, and only a lone fragment may exceed the budget.
func (p *Planner) pack(frags []Fragment, total int, header string, reserve int) ([]ChunkPlan, error) {
	budget := p.opts.ChunkSize
	var chunks []ChunkPlan
	for i, index := 0, 1; i < len(frags); index++ {
		prefix, charged := "", 0
		if index == 1 {
			prefix, charged = header, reserve
		}
		pos := position(index, total)

		least := 1
		if prefix != "" && budget > 0 {
			floor, err := p.headerFloor(prefix, total)
			if err != nil {
				return nil, err
			}
			if floor <= budget {
				least = 0
			}
		}

		// Fragment sums underestimate the rendered chunk, so start from the
		// greedy estimate and give back trailing fragments until it fits.
		end, sum := i, charged
		for end < len(frags) {
			if budget > 0 && end-i >= least && sum+frags[end].Tokens > budget {
				break
			}
			sum += frags[end].Tokens
			end++
		}
		var cost int
		for {
			text := prefix + renderContainer(frags[i:end], pos, p.opts.Escape)
			n, err := countText(p.counter, text)
			if err != nil {
				return nil, fmt.Errorf("count chunk %d: %w", index, err)
			}
			cost = n
			if budget == 0 || cost <= budget || end-i <= least {
				break
			}
			end--
		}

		chunks = append(chunks, ChunkPlan{
			Index:        index,
			Fragments:    append([]Fragment(nil), frags[i:end]...),
			Tokens:       cost,
			HeaderTokens: charged,
			Overflow:     budget > 0 && cost > budget,
		})
		i = end
	}
	return chunks, nil
}
