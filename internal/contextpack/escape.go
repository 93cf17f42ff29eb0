package contextpack

import "strings"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	// quoteEscaper keeps attribute values well formed when escaping is off.
	quoteEscaper = strings.NewReplacer(`"`, "&quot;")
)

// EscapeText replaces &, < and > with their entity forms.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes an attribute value the same way as text, plus quotes.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

func maybeEscapeText(s string, escape bool) string {
	if !escape {
		return s
	}
	return EscapeText(s)
}

func maybeEscapeAttr(s string, escape bool) string {
	if !escape {
		return quoteEscaper.Replace(s)
	}
	return EscapeAttr(s)
}
