// Package project detects the project a workspace belongs to: its root
// directory, its name and its primary language.
//
// Detection reads directories through files.FS, so it works the same on
// disk and in memory.
package project

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dollspace-gay/AuroraHeart/internal/files"
)

// Language is a programming language AuroraHeart recognizes.
type Language string

// Supported languages.
const (
	Rust       Language = "rust"
	Python     Language = "python"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Java       Language = "java"
	CSharp     Language = "csharp"
	Cpp        Language = "cpp"
	C          Language = "c"
)

// Languages lists every supported language. Ties in extension counting go
// to the earlier entry.
var Languages = []Language{Rust, Python, TypeScript, JavaScript, Go, Java, CSharp, Cpp, C}

var extensions = map[Language][]string{
	Rust:       {"rs"},
	Python:     {"py"},
	TypeScript: {"ts", "tsx"},
	JavaScript: {"js", "jsx", "mjs"},
	Go:         {"go"},
	Java:       {"java"},
	CSharp:     {"cs"},
	Cpp:        {"cpp", "cc", "cxx", "hpp", "h"},
	C:          {"c", "h"},
}

var aliases = map[string]Language{
	"rust":       Rust,
	"python":     Python,
	"py":         Python,
	"typescript": TypeScript,
	"ts":         TypeScript,
	"javascript": JavaScript,
	"js":         JavaScript,
	"go":         Go,
	"golang":     Go,
	"java":       Java,
	"csharp":     CSharp,
	"c#":         CSharp,
	"cs":         CSharp,
	"cpp":        Cpp,
	"c++":        Cpp,
	"c":          C,
}

// ParseLanguage accepts a language name or a common alias, in any case.
func ParseLanguage(name string) (Language, error) {
	if l, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
}

// String returns the language name.
func (l Language) String() string {
	return string(l)
}

// Extensions returns the file extensions of the language, without dots.
func (l Language) Extensions() []string {
	return extensions[l]
}

// marker is a file whose presence identifies a project root and hints at
// its language. Pattern uses path.Match syntax.
type marker struct {
	pattern  string
	language Language
}

// markers are checked in order.
var markers = []marker{
	{"Cargo.toml", Rust},
	{"requirements.txt", Python},
	{"pyproject.toml", Python},
	{"package.json", JavaScript},
	{"tsconfig.json", TypeScript},
	{"go.mod", Go},
	{"pom.xml", Java},
	{"build.gradle", Java},
	{"*.csproj", CSharp},
	{"CMakeLists.txt", Cpp},
}

// Info describes a detected project.
type Info struct {
	Root     string
	Name     string
	Language Language // empty when unknown
}

// Detect finds the project containing start and describes it. A start
// outside any project is its own root.
func Detect(ctx context.Context, fsys files.FS, start string) (Info, error) {
	root, err := FindRoot(ctx, fsys, start)
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, err
		}
		root = filepath.Clean(start)
	}

	info := Info{Root: root, Name: Name(root)}
	lang, err := DetectLanguage(ctx, fsys, root)
	switch {
	case err == nil:
		info.Language = lang
	case ctx.Err() != nil:
		return Info{}, err
	}
	return info, nil
}

// FindRoot walks up from start to the first directory holding a marker
// file or a .git directory. Directories that cannot be listed are skipped.
func FindRoot(ctx context.Context, fsys files.FS, start string) (string, error) {
	dir := filepath.Clean(start)
	for {
		entries, err := fsys.ReadDir(ctx, dir)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err == nil && isRoot(entries) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: above %s", ErrRootNotFound, start)
		}
		dir = parent
	}
}

func isRoot(entries []files.Entry) bool {
	for _, e := range entries {
		if e.IsDir {
			if e.Name == ".git" {
				return true
			}
			continue
		}
		if _, ok := markerFor(e.Name); ok {
			return true
		}
	}
	return false
}

func markerFor(name string) (marker, bool) {
	for _, m := range markers {
		if ok, _ := path.Match(m.pattern, name); ok {
			return m, true
		}
	}
	return marker{}, false
}

// DetectLanguage returns the primary language of the project at root.
// Marker files win, with package.json next to tsconfig.json meaning
// TypeScript. Otherwise the language with the most top-level source files
// wins; a file extension shared by two languages counts for both.
func DetectLanguage(ctx context.Context, fsys files.FS, root string) (Language, error) {
	entries, err := fsys.ReadDir(ctx, root)
	if err != nil {
		return "", err
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			present[e.Name] = true
		}
	}

	for _, m := range markers {
		for name := range present {
			if ok, _ := path.Match(m.pattern, name); !ok {
				continue
			}
			if m.pattern == "package.json" && present["tsconfig.json"] {
				return TypeScript, nil
			}
			return m.language, nil
		}
	}

	counts := make(map[Language]int)
	for name := range present {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if ext == "" {
			continue
		}
		for _, l := range Languages {
			for _, e := range extensions[l] {
				if e == ext {
					counts[l]++
				}
			}
		}
	}

	var best Language
	for _, l := range Languages {
		if counts[l] > counts[best] {
			best = l
		}
	}
	if best == "" {
		return "", ErrLanguageUnknown
	}
	return best, nil
}

// Name returns the project name, the base name of its root.
func Name(root string) string {
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
