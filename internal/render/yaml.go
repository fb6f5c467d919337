package render

import (
	"strings"
)

const (
	// yamlIndentStep is the number of spaces added per nesting level.
	yamlIndentStep = 2

	// blockLiteralThreshold is the string length above which values are
	// emitted in block literal style instead of inline.
	blockLiteralThreshold = 100

	// quotedChars are the characters that force a short string into
	// double-quoted style.
	quotedChars = "\n\"':[]{}"
)

// stringStyle selects how a string value is emitted in YAML-like output.
type stringStyle int

const (
	stylePlain stringStyle = iota
	styleQuoted
	styleBlock
)

// RenderYAMLLike encodes v in a compact YAML-like representation: two-space
// indentation, `- ` array entries, block literals for long or JSON-shaped
// strings, and inline `[]` / `{}` for empty containers.
func RenderYAMLLike(v Value) string {
	switch {
	case v.kind == KindArray && len(v.arr) == 0:
		return "[]"
	case v.kind == KindObject && len(v.obj) == 0:
		return "{}"
	case v.kind == KindArray || v.kind == KindObject:
		return strings.Join(yamlLines(v, 0), "\n")
	case v.kind == KindString && stringStyleOf(v.str) == styleBlock:
		lines := append([]string{"|"}, blockLines(v.str, 1)...)
		return strings.Join(lines, "\n")
	default:
		return scalarText(v)
	}
}

// stringStyleOf classifies s per the manifest viewer's quoting rules.
func stringStyleOf(s string) stringStyle {
	if len(s) > blockLiteralThreshold ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) {
		return styleBlock
	}
	if strings.ContainsAny(s, quotedChars) {
		return styleQuoted
	}
	return stylePlain
}

// scalarText returns the inline text of a scalar value. Strings requiring
// block style must not be passed here.
func scalarText(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.num
	case KindString:
		if stringStyleOf(v.str) == styleQuoted {
			return `"` + strings.ReplaceAll(v.str, `"`, `\"`) + `"`
		}
		return v.str
	default:
		return ""
	}
}

func pad(indent int) string {
	return strings.Repeat(" ", indent*yamlIndentStep)
}

// blockLines splits s into its content lines, each indented to the given level.
func blockLines(s string, indent int) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, pad(indent)+l)
	}
	return out
}

// yamlLines encodes a non-empty object or array into output lines at the
// given indentation level.
func yamlLines(v Value, indent int) []string {
	if v.kind == KindObject {
		return objectLines(v, indent)
	}
	return arrayLines(v, indent)
}

func objectLines(v Value, indent int) []string {
	var lines []string
	for _, m := range v.obj {
		prefix := pad(indent) + m.Key + ":"
		child := m.Value

		switch {
		case child.kind == KindArray && len(child.arr) == 0:
			lines = append(lines, prefix+" []")
		case child.kind == KindObject && len(child.obj) == 0:
			lines = append(lines, prefix+" {}")
		case child.kind == KindArray || child.kind == KindObject:
			lines = append(lines, prefix)
			lines = append(lines, yamlLines(child, indent+1)...)
		case child.kind == KindString && stringStyleOf(child.str) == styleBlock:
			lines = append(lines, prefix+" |")
			lines = append(lines, blockLines(child.str, indent+1)...)
		default:
			lines = append(lines, prefix+" "+scalarText(child))
		}
	}
	return lines
}

func arrayLines(v Value, indent int) []string {
	var lines []string
	for _, elem := range v.arr {
		switch {
		case elem.IsEmptyContainer():
			text := "[]"
			if elem.kind == KindObject {
				text = "{}"
			}
			lines = append(lines, pad(indent)+"- "+text)
		case elem.kind == KindArray || elem.kind == KindObject:
			// Nested entries hang off the dash: the first line is inlined
			// after `- ` and continuation lines keep the deeper indent.
			sub := yamlLines(elem, indent+1)
			first := strings.TrimPrefix(sub[0], pad(indent+1))
			lines = append(lines, pad(indent)+"- "+first)
			lines = append(lines, sub[1:]...)
		case elem.kind == KindString && stringStyleOf(elem.str) == styleBlock:
			lines = append(lines, pad(indent)+"- |")
			lines = append(lines, blockLines(elem.str, indent+1)...)
		default:
			lines = append(lines, pad(indent)+"- "+scalarText(elem))
		}
	}
	return lines
}
