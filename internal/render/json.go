package render

import (
	"encoding/json"
	"strings"
)

// jsonIndent is the indentation unit for rendered JSON, two spaces per level.
const jsonIndent = "  "

// RenderJSON encodes v as pretty-printed JSON with 2-space indentation,
// preserving object key order and the literal text of numbers. The output
// parses back to a structure deep-equal to v with any standard JSON parser.
func RenderJSON(v Value) string {
	var b strings.Builder
	writeJSON(&b, v, 0)
	return b.String()
}

func writeJSON(b *strings.Builder, v Value, depth int) {
	switch v.kind {
	case KindNull, KindUndefined:
		// JSON has no undefined; both collapse to null on the wire.
		b.WriteString("null")
	case KindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.num)
	case KindString:
		writeJSONString(b, v.str)
	case KindArray:
		writeJSONArray(b, v, depth)
	case KindObject:
		writeJSONObject(b, v, depth)
	}
}

func writeJSONArray(b *strings.Builder, v Value, depth int) {
	if len(v.arr) == 0 {
		b.WriteString("[]")
		return
	}

	b.WriteString("[\n")
	for i, elem := range v.arr {
		b.WriteString(strings.Repeat(jsonIndent, depth+1))
		writeJSON(b, elem, depth+1)
		if i < len(v.arr)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(jsonIndent, depth))
	b.WriteString("]")
}

func writeJSONObject(b *strings.Builder, v Value, depth int) {
	if len(v.obj) == 0 {
		b.WriteString("{}")
		return
	}

	b.WriteString("{\n")
	for i, m := range v.obj {
		b.WriteString(strings.Repeat(jsonIndent, depth+1))
		writeJSONString(b, m.Key)
		b.WriteString(": ")
		writeJSON(b, m.Value, depth+1)
		if i < len(v.obj)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(jsonIndent, depth))
	b.WriteString("}")
}

// writeJSONString writes s as a JSON string literal with standard escaping.
func writeJSONString(b *strings.Builder, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail; keep the output well-formed anyway.
		b.WriteString(`""`)
		return
	}
	b.Write(encoded)
}
