// internal/contextpack/header.go
package contextpack

import (
	"fmt"
	"strings"
	"time"
)

const (
	// HeaderVersion is the wire version of the context header.
	HeaderVersion = 1
	// AckToken is what a consumer replies once every chunk has arrived.
	AckToken = "READY"
	// TimeFormat renders GeneratedAt.
	TimeFormat = "2006-01-02T15:04:05Z"

	headerTag = "context-header"
)

// BuildHeader assembles the header for a sequence of total chunks.
func BuildHeader(total, chunkSize int, fileMap []FileMapEntry, now time.Time) ContextHeader {
	entries := make([]FileMapEntry, len(fileMap))
	copy(entries, fileMap)
	return ContextHeader{
		Version:      HeaderVersion,
		TotalChunks:  total,
		ChunkSize:    chunkSize,
		GeneratedAt:  now.UTC().Truncate(time.Second),
		FileMap:      entries,
		Instructions: instructions(total),
	}
}

func instructions(total int) string {
	lines := []string{
		fmt.Sprintf("This context arrives as %d chunks, this header included.", total),
		"Rebuild each file in file-map order; join the parts of a split file by ascending part index.",
		"Do not answer until the last chunk has arrived.",
		fmt.Sprintf("After the last chunk, reply only with %s.", AckToken),
	}
	return strings.Join(lines, "\n")
}

// RenderHeader renders h as markup. Paths in the file map follow the same
// escaping rules as fragment attributes.
func RenderHeader(h ContextHeader, escape bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s version=\"%d\" total-chunks=\"%d\" chunk-size=\"%d\" generated-at=\"%s\">\n",
		headerTag, h.Version, h.TotalChunks, h.ChunkSize, h.GeneratedAt.UTC().Format(TimeFormat))
	fmt.Fprintf(&b, "  <file-map total-files=\"%d\">\n", len(h.FileMap))
	for _, e := range h.FileMap {
		fmt.Fprintf(&b, "    <file id=\"%d\" path=\"%s\" tokens=\"%d\" parts=\"%d\"/>\n",
			e.ID, maybeEscapeAttr(e.Path, escape), e.Tokens, e.Parts)
	}
	b.WriteString("  </file-map>\n")
	b.WriteString("  <instructions>\n")
	for _, line := range strings.Split(h.Instructions, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("  </instructions>\n")
	b.WriteString("</" + headerTag + ">\n")
	return b.String()
}
