package index

import (
	"path"
	"strings"
)

// Resolver applies the link-path resolution policy to a fixed set of note
// paths. It is immutable after construction.
//
// Lookup order for a link path (alias and #heading / ^block subpath removed):
//  1. empty path: the source note itself
//  2. exact vault path, then with ".md" appended
//  3. the same two, relative to the source note's folder
//  4. case-insensitive match on the full path or a trailing path suffix
//     ("folder/note" matches "a/folder/note.md"); ties go to the candidate in
//     the source's folder, then the shortest path, then lexical order
//  5. a frontmatter alias, compared case-insensitively
//
// paths may include attachments of any extension; they resolve only by their
// exact path or a trailing path suffix including the extension.
type Resolver struct {
	paths   []string
	set     map[string]struct{}
	aliases map[string]string
}

// NewResolver builds a Resolver over paths. aliases maps an alias to the note
// declaring it and may be nil. Order of paths only matters for equal-length
// ties, which are broken lexically anyway.
func NewResolver(paths []string, aliases map[string]string) *Resolver {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	folded := make(map[string]string, len(aliases))
	for a, p := range aliases {
		key := strings.ToLower(strings.TrimSpace(a))
		if prev, ok := folded[key]; ok && prev < p {
			continue
		}
		folded[key] = p
	}
	return &Resolver{paths: paths, set: set, aliases: folded}
}

// StripSubpath removes a |alias suffix and a #heading or ^block reference.
func StripSubpath(linkpath string) string {
	if i := strings.IndexByte(linkpath, '|'); i >= 0 {
		linkpath = linkpath[:i]
	}
	if i := strings.IndexAny(linkpath, "#^"); i >= 0 {
		linkpath = linkpath[:i]
	}
	return strings.TrimSpace(linkpath)
}

// Resolve returns the destination path for linkpath as seen from source.
func (r *Resolver) Resolve(linkpath, source string) (string, bool) {
	lp := strings.TrimPrefix(StripSubpath(linkpath), "/")
	if lp == "" {
		if _, ok := r.set[source]; ok {
			return source, true
		}
		return "", false
	}

	if p, ok := r.exact(lp); ok {
		return p, true
	}

	dir := path.Dir(source)
	if source != "" && dir != "." {
		if p, ok := r.exact(path.Join(dir, lp)); ok {
			return p, true
		}
	}

	want := normalize(lp)
	best := ""
	for _, p := range r.paths {
		n := normalize(p)
		if n != want && !strings.HasSuffix(n, "/"+want) {
			continue
		}
		if best == "" || better(p, best, dir) {
			best = p
		}
	}
	if best != "" {
		return best, true
	}

	if p, ok := r.aliases[strings.ToLower(lp)]; ok {
		return p, true
	}
	return "", false
}

func (r *Resolver) exact(p string) (string, bool) {
	if _, ok := r.set[p]; ok {
		return p, true
	}
	if _, ok := r.set[p+".md"]; ok {
		return p + ".md", true
	}
	return "", false
}

// better reports whether candidate a should win over b for a link written in
// sourceDir.
func better(a, b, sourceDir string) bool {
	aLocal, bLocal := path.Dir(a) == sourceDir, path.Dir(b) == sourceDir
	if aLocal != bLocal {
		return aLocal
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func normalize(p string) string {
	return strings.ToLower(strings.TrimSuffix(p, ".md"))
}
