package contextpack

import (
	"path"
	"sort"
	"strings"
)

// Order returns a copy of files sorted by folder then path, both compared
// segment by segment, with IDs assigned 0..N-1 in that order.
func Order(files []SourceFile) []SourceFile {
	out := make([]SourceFile, len(files))
	for i, f := range files {
		f.Folder = normalizeFolder(f.Folder)
		f.Path = strings.TrimPrefix(toSlash(f.Path), "./")
		out[i] = f
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareSegments(out[i].Folder, out[j].Folder); c != 0 {
			return c < 0
		}
		return compareSegments(out[i].Path, out[j].Path) < 0
	})
	for i := range out {
		out[i].ID = i
	}
	return out
}

// compareSegments orders two slash paths by their segment sequence, so "a/b"
// sorts before "a-b" regardless of the separator's byte value.
func compareSegments(a, b string) int {
	as := segments(a)
	bs := segments(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func segments(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func normalizeFolder(folder string) string {
	folder = toSlash(folder)
	if folder == "" || folder == "." {
		return ""
	}
	folder = strings.TrimSuffix(path.Clean(folder), "/")
	if folder == "." {
		return ""
	}
	return folder
}

// displayFolder is the folder as written into markup; the root is ".".
func displayFolder(folder string) string {
	if folder == "" {
		return "."
	}
	return folder
}
