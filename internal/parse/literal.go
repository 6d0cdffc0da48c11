package parse

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// csharpStringValue returns the runtime value of a C# string literal.
// Undecodable escapes are kept as written.
func csharpStringValue(kind, raw string) string {
	raw = strings.TrimSuffix(raw, "u8")
	switch kind {
	case "verbatim_string_literal":
		return verbatimValue(raw)
	case "raw_string_literal":
		return rawValue(raw)
	default:
		return regularValue(raw)
	}
}

func verbatimValue(raw string) string {
	body := strings.TrimPrefix(raw, "@")
	body = strings.TrimPrefix(body, "\"")
	body = strings.TrimSuffix(body, "\"")
	return strings.ReplaceAll(body, `""`, `"`)
}

// rawValue handles """...""" literals. Multi-line raw strings drop the
// opening and closing lines and remove the closing line's indentation
// from every content line.
func rawValue(raw string) string {
	n := 0
	for n < len(raw) && raw[n] == '"' {
		n++
	}
	if n < 3 || len(raw) < 2*n {
		return raw
	}
	body := raw[n : len(raw)-n]
	if !strings.Contains(body, "\n") {
		return body
	}

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return body
	}
	last := lines[len(lines)-1]
	indent := last[:len(last)-len(strings.TrimLeft(last, " \t"))]
	content := lines[1 : len(lines)-1]
	for i, line := range content {
		content[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(content, "\n")
}

// csharpCharValue decodes a character literal such as 'a' or '\n'.
func csharpCharValue(raw string) string {
	body := strings.TrimPrefix(raw, "'")
	return unescape(strings.TrimSuffix(body, "'"))
}

func regularValue(raw string) string {
	body := strings.TrimPrefix(raw, "\"")
	return unescape(strings.TrimSuffix(body, "\""))
}

func unescape(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'e':
			b.WriteByte(0x1b)
		case '\\', '"', '\'':
			b.WriteByte(body[i])
		case 'x':
			// \x takes one to four hex digits.
			j := i + 1
			for j < len(body) && j < i+5 && isHex(body[j]) {
				j++
			}
			if !writeCodePoint(&b, body[i+1:j]) {
				b.WriteString(body[i-1 : j])
			}
			i = j - 1
		case 'u', 'U':
			width := 4
			if body[i] == 'U' {
				width = 8
			}
			j := i + 1 + width
			if j > len(body) || !writeCodePoint(&b, body[i+1:j]) {
				b.WriteByte('\\')
				b.WriteByte(body[i])
				continue
			}
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

func writeCodePoint(b *strings.Builder, hex string) bool {
	if hex == "" {
		return false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return false
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return false
	}
	b.WriteRune(r)
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
