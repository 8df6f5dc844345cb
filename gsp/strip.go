package gsp

import "strings"

const bom = "\uFEFF"

// Strip normalizes template text before scanning: a leading byte order mark is dropped and
// "\r\n" and lone "\r" line endings become "\n". Text that needs no change is returned as is.
func Strip(src string) string {
	src = strings.TrimPrefix(src, bom)
	if strings.IndexByte(src, '\r') < 0 {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\r' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('\n')
		if i+1 < len(src) && src[i+1] == '\n' {
			i++
		}
	}
	return b.String()
}
