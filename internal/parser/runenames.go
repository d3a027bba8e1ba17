package parser

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/runenames"
)

const cjkIdeographPrefix = "CJK UNIFIED IDEOGRAPH-"

var (
	runeByNameOnce sync.Once
	runeByName     map[string]rune
)

// lookupRuneName resolves the character name of a \N{...} escape. Names
// match case-insensitively. The table is built on first use.
func lookupRuneName(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))

	if hex, ok := strings.CutPrefix(name, cjkIdeographPrefix); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !unicode.Is(unicode.Ideographic, rune(v)) {
			return 0, false
		}
		return rune(v), true
	}

	runeByNameOnce.Do(func() {
		m := make(map[string]rune, 1<<16)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			n := runenames.Name(r)
			if n == "" || n[0] == '<' {
				continue
			}
			if _, dup := m[n]; !dup {
				m[n] = r
			}
		}
		runeByName = m
	})

	r, ok := runeByName[name]
	return r, ok
}
