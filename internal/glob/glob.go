// Package glob compiles path globs into anchored regular expressions and
// applies include/exclude pattern lists to vault paths.
//
// Supported syntax:
//
//	**      any characters including '/' (a "**/" prefix also matches no segment)
//	*       any characters except '/'
//	?       exactly one character except '/'
//	[...]   character class, copied verbatim; an unterminated '[' is literal
//	{a,b}   alternation of literals; an unterminated '{' is literal
//
// Every other character matches itself.
package glob

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 512

// compiled holds recently used patterns. Compiled patterns are immutable so
// sharing them between goroutines is safe.
var compiled *lru.Cache[string, *Pattern]

func init() {
	c, err := lru.New[string, *Pattern](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("glob: create cache: %v", err))
	}
	compiled = c
}

// Pattern is a compiled glob.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// Compile translates a glob into a Pattern.
func Compile(glob string) (*Pattern, error) {
	if p, ok := compiled.Get(glob); ok {
		return p, nil
	}
	re, err := regexp.Compile(Translate(glob))
	if err != nil {
		return nil, fmt.Errorf("glob: compile %q: %w", glob, err)
	}
	p := &Pattern{glob: glob, re: re}
	compiled.Add(glob, p)
	return p, nil
}

// String returns the source glob.
func (p *Pattern) String() string {
	return p.glob
}

// Match reports whether the whole path matches the pattern.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// Translate converts a glob into an anchored regular expression.
func Translate(glob string) string {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(glob); {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				if i+2 < len(glob) && glob[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				b.WriteString(".*")
				i += 2
				continue
			}
			b.WriteString("[^/]*")
			i++
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			b.WriteString(glob[i : i+end+2])
			i += end + 2
		case '{':
			end := strings.IndexByte(glob[i+1:], '}')
			if end < 0 {
				b.WriteString(`\{`)
				i++
				continue
			}
			alts := strings.Split(glob[i+1:i+1+end], ",")
			for j, alt := range alts {
				alts[j] = regexp.QuoteMeta(alt)
			}
			b.WriteString("(?:" + strings.Join(alts, "|") + ")")
			i += end + 2
		default:
			// Copy a whole UTF-8 sequence at once so multi-byte characters
			// are never split by QuoteMeta.
			j := i + 1
			for j < len(glob) && glob[j]&0xC0 == 0x80 {
				j++
			}
			b.WriteString(regexp.QuoteMeta(glob[i:j]))
			i = j
		}
	}

	b.WriteByte('$')
	return b.String()
}

// Matches reports whether path matches glob. A glob that fails to compile
// matches nothing.
func Matches(path, glob string) bool {
	p, err := Compile(glob)
	if err != nil {
		return false
	}
	return p.Match(path)
}

// MatchesIncludes reports whether path matches any include pattern. An empty
// list admits every path.
func MatchesIncludes(path string, includes []string) bool {
	if len(includes) == 0 {
		return true
	}
	for _, g := range includes {
		if Matches(path, g) {
			return true
		}
	}
	return false
}

// MatchesExcludes reports whether path matches any exclude pattern. An empty
// list excludes nothing.
func MatchesExcludes(path string, excludes []string) bool {
	for _, g := range excludes {
		if Matches(path, g) {
			return true
		}
	}
	return false
}

// ShouldInclude combines the include and exclude tests.
func ShouldInclude(path string, includes, excludes []string) bool {
	return MatchesIncludes(path, includes) && !MatchesExcludes(path, excludes)
}
