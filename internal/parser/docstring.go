package parser

import (
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// docstringOf returns the cleaned docstring of a function or class, or ""
// when the first body statement is not a plain string literal.
func docstringOf(def *sitter.Node, source []byte) string {
	body := namedChildren(def.ChildByFieldName("body"))
	if len(body) == 0 || body[0].Kind() != "expression_statement" {
		return ""
	}

	exprs := namedChildren(body[0])
	if len(exprs) != 1 {
		return ""
	}

	var parts []*sitter.Node
	switch exprs[0].Kind() {
	case "string":
		parts = []*sitter.Node{exprs[0]}
	case "concatenated_string":
		parts = namedChildren(exprs[0])
	default:
		return ""
	}

	var sb strings.Builder
	for _, part := range parts {
		value, ok := stringValue(extractNodeText(part, source))
		if !ok {
			return ""
		}
		sb.WriteString(value)
	}
	return cleandoc(sb.String())
}

// stringValue decodes a str literal. Bytes literals and formatted strings
// are not plain strings and report false.
func stringValue(literal string) (string, bool) {
	i := strings.IndexAny(literal, `'"`)
	if i < 0 {
		return "", false
	}

	prefix := strings.ToLower(literal[:i])
	if strings.ContainsAny(prefix, "bft") {
		return "", false
	}
	raw := strings.ContainsRune(prefix, 'r')

	body := literal[i:]
	quote := body[:1]
	if strings.HasPrefix(body, quote+quote+quote) && len(body) >= 6 {
		quote = body[:3]
	}
	if len(body) < 2*len(quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	if raw {
		return body, true
	}
	return decodeEscapes(body), true
}

var hexEscapeWidth = map[byte]int{'x': 2, 'u': 4, 'U': 8}

// decodeEscapes interprets backslash escapes in a non-raw str literal.
// Unknown escapes and unknown character names are kept verbatim.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}

		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			sb.WriteRune(rune(v))
			i = j - 1
		case 'N':
			if end := strings.IndexByte(s[i:], '}'); i+1 < len(s) && s[i+1] == '{' && end > 0 {
				if r, ok := lookupRuneName(s[i+2 : i+end]); ok {
					sb.WriteRune(r)
					i += end
					continue
				}
			}
			sb.WriteByte('\\')
			sb.WriteByte(e)
		case 'x', 'u', 'U':
			width := hexEscapeWidth[e]
			if i+1+width <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil {
					sb.WriteRune(rune(v))
					i += width
					continue
				}
			}
			sb.WriteByte('\\')
			sb.WriteByte(e)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String()
}

// cleandoc normalizes docstring indentation: tabs are expanded, the first
// line is stripped of leading whitespace, the common indentation of the
// remaining lines is removed and blank leading and trailing lines dropped.
func cleandoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		r := []rune(line)
		content := len([]rune(strings.TrimLeftFunc(line, unicode.IsSpace)))
		if content > 0 {
			indent := len(r) - content
			if margin < 0 || indent < margin {
				margin = indent
			}
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			r := []rune(lines[i])
			if len(r) > margin {
				lines[i] = string(r[margin:])
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces tabs with spaces up to the next multiple of size,
// restarting the column after every newline.
func expandTabs(s string, size int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}

	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := size - col%size
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
