// Package contextpack plans and renders token-bounded context chunks from a set
// of source files.
package contextpack

import "time"

// SourceFile is one file handed to the planner. Folder and Path use forward
// slashes; ID is assigned by Order.
type SourceFile struct {
	ID      int
	Folder  string
	Path    string
	Content string
}

// Part is a contiguous line range [StartLine, EndLine) of one file.
type Part struct {
	FileID    int
	StartLine int
	EndLine   int
	Index     int
	Count     int
	Content   string
}

// Fragment is a renderable unit: a whole file or one of its parts, with the
// rendered markup and the oracle's cost for exactly that markup.
type Fragment struct {
	File   *SourceFile
	Part   Part
	Text   string
	Tokens int
}

// Split reports whether the fragment is one of several parts of its file.
func (f Fragment) Split() bool { return f.Part.Count > 1 }

// ChunkPlan is the set of fragments that make up one body chunk. Tokens is
// the count of the chunk's rendered text, inline header included. Overflow
// marks a chunk over budget, which only a lone fragment that does not fit by
// itself (or follows an oversize inline header) can be.
type ChunkPlan struct {
	Index        int
	Fragments    []Fragment
	Tokens       int
	HeaderTokens int
	Overflow     bool
}

// FileMapEntry is one row of the header's file map.
type FileMapEntry struct {
	ID     int    `yaml:"id"`
	Path   string `yaml:"path"`
	Tokens int    `yaml:"tokens"`
	Parts  int    `yaml:"parts"`
}

// ContextHeader describes the whole chunk sequence to a consumer.
type ContextHeader struct {
	Version      int
	TotalChunks  int
	ChunkSize    int
	GeneratedAt  time.Time
	FileMap      []FileMapEntry
	Instructions string
}

// HeaderMode selects where the header is placed in the chunk sequence.
type HeaderMode string

const (
	// HeaderInline prepends the header to chunk 1 and charges its cost there.
	HeaderInline HeaderMode = "inline"
	// HeaderSeparate emits the header as its own leading chunk.
	HeaderSeparate HeaderMode = "separate"
)

// Valid reports whether m is a known header mode.
func (m HeaderMode) Valid() bool {
	return m == HeaderInline || m == HeaderSeparate
}

// Plan is the complete, immutable result of planning one invocation.
type Plan struct {
	Files        []SourceFile
	Chunks       []ChunkPlan
	FileMap      []FileMapEntry
	Header       *ContextHeader
	HeaderText   string
	HeaderTokens int
	TotalChunks  int
	Budget       int
	HeaderMode   HeaderMode
	Escape       bool

	// headerFloor is the cost of the inline header with an empty chunk 1
	// container.
	headerFloor int
}

// Oversized returns the chunks whose cost exceeds the budget.
func (p *Plan) Oversized() []ChunkPlan {
	if p.Budget <= 0 {
		return nil
	}
	var out []ChunkPlan
	for _, c := range p.Chunks {
		if c.Overflow {
			out = append(out, c)
		}
	}
	return out
}

// HeaderOversize reports whether the header alone exceeds the budget. Inline,
// that includes the empty container it opens chunk 1 with.
func (p *Plan) HeaderOversize() bool {
	if p.Header == nil || p.Budget <= 0 {
		return false
	}
	if p.HeaderMode == HeaderInline && p.headerFloor > 0 {
		return p.headerFloor > p.Budget
	}
	return p.HeaderTokens > p.Budget
}

// TotalTokens sums the planned cost of every chunk, header included.
func (p *Plan) TotalTokens() int {
	total := 0
	for _, c := range p.Chunks {
		total += c.Tokens
	}
	if p.HeaderMode == HeaderSeparate && p.Header != nil {
		total += p.HeaderTokens
	}
	return total
}
