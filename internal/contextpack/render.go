package contextpack

import (
	"fmt"
	"path"
	"strings"
)

const (
	rootTag     = "shared-context"
	folderTag   = "folder"
	fileTag     = "file-contents"
	fileIndent  = "    "
	groupIndent = "  "
)

// RenderFragment renders one file block. For a part of a split file (count > 1)
// the opening tag carries part="index/count".
func RenderFragment(file *SourceFile, body string, index, count int, escape bool) string {
	var b strings.Builder
	b.Grow(len(body) + 128)
	b.WriteString(fileIndent)
	b.WriteString("<" + fileTag)
	fmt.Fprintf(&b, ` path="%s"`, maybeEscapeAttr(file.Path, escape))
	fmt.Fprintf(&b, ` name="%s"`, maybeEscapeAttr(path.Base(file.Path), escape))
	fmt.Fprintf(&b, ` folder="%s"`, maybeEscapeAttr(displayFolder(file.Folder), escape))
	if count > 1 {
		fmt.Fprintf(&b, ` part="%d/%d"`, index, count)
	}
	b.WriteString(">\n")
	content := maybeEscapeText(body, escape)
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(fileIndent)
	b.WriteString("</" + fileTag + ">\n")
	return b.String()
}

// writeGrouped writes fragments under folder wrappers. A wrapper opens when the
// folder changes from the previous fragment and closes before the next
// differing folder or at the end.
func writeGrouped(b *strings.Builder, fragments []Fragment, escape bool) {
	open := false
	current := ""
	for _, frag := range fragments {
		folder := frag.File.Folder
		if !open || folder != current {
			if open {
				b.WriteString(groupIndent + "</" + folderTag + ">\n")
			}
			fmt.Fprintf(b, "%s<%s path=\"%s\">\n", groupIndent, folderTag, maybeEscapeAttr(displayFolder(folder), escape))
			open = true
			current = folder
		}
		b.WriteString(frag.Text)
	}
	if open {
		b.WriteString(groupIndent + "</" + folderTag + ">\n")
	}
}

// renderContainer wraps grouped fragments in the top-level tag. An empty
// position string renders the single-chunk form without a chunk attribute.
func renderContainer(fragments []Fragment, position string, escape bool) string {
	var b strings.Builder
	if position == "" {
		b.WriteString("<" + rootTag + ">\n")
	} else {
		fmt.Fprintf(&b, "<%s chunk=\"%s\">\n", rootTag, position)
	}
	writeGrouped(&b, fragments, escape)
	b.WriteString("</" + rootTag + ">\n")
	return b.String()
}
