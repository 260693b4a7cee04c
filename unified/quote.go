package unified

import (
	"strconv"
	"strings"
)

// quotePath returns name as git writes it in diff headers: unchanged when
// it is plain, otherwise C-quoted with octal escapes for bytes outside
// printable ASCII.
func quotePath(name string) string {
	if !needsQuoting(name) {
		return name
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c >= 0x7f {
				b.WriteByte('\\')
				b.WriteString(strconv.FormatUint(uint64(c)>>6&7, 8))
				b.WriteString(strconv.FormatUint(uint64(c)>>3&7, 8))
				b.WriteString(strconv.FormatUint(uint64(c)&7, 8))
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuoting(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			return true
		}
	}
	return false
}

// cutQuoted splits a leading C-quoted name off s and returns it unescaped,
// along with the text after the closing quote.
func cutQuoted(s string) (name, rest string, ok bool) {
	if !strings.HasPrefix(s, `"`) {
		return "", s, false
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			name, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", s, false
			}
			return name, s[i+1:], true
		}
	}
	return "", s, false
}

// unquotePath undoes quotePath. Names that are not quoted are returned as
// they are.
func unquotePath(s string) string {
	if name, rest, ok := cutQuoted(s); ok && rest == "" {
		return name
	}
	return s
}
