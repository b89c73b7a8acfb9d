package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dollspace-gay/AuroraHeart/internal/files"
)

func memFS(paths ...string) *files.MemFS {
	fs := files.NewMemFS()
	for _, p := range paths {
		fs.AddFile(p, "")
	}
	return fs
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name string
		want Language
	}{
		{"rust", Rust},
		{"Py", Python},
		{"TS", TypeScript},
		{"golang", Go},
		{"c#", CSharp},
		{"C++", Cpp},
		{" c ", C},
	}

	for _, tt := range tests {
		got, err := ParseLanguage(tt.name)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.name, tt.want, got)
		}
	}

	if _, err := ParseLanguage("cobol"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Language
	}{
		{"cargo", []string{"Cargo.toml", "main.py"}, Rust},
		{"requirements", []string{"requirements.txt"}, Python},
		{"pyproject", []string{"pyproject.toml"}, Python},
		{"package json", []string{"package.json"}, JavaScript},
		{"package json with tsconfig", []string{"package.json", "tsconfig.json"}, TypeScript},
		{"tsconfig alone", []string{"tsconfig.json"}, TypeScript},
		{"go mod", []string{"go.mod", "script.py"}, Go},
		{"pom", []string{"pom.xml"}, Java},
		{"gradle", []string{"build.gradle"}, Java},
		{"csproj", []string{"App.csproj"}, CSharp},
		{"cmake", []string{"CMakeLists.txt", "main.c"}, Cpp},
		{"marker order", []string{"go.mod", "Cargo.toml"}, Rust},
		{"extension count", []string{"a.py", "b.py", "c.go"}, Python},
		{"extension case", []string{"A.RS"}, Rust},
		{"shared header counts for both", []string{"x.h"}, Cpp},
		{"c sources", []string{"x.h", "a.c", "b.c"}, C},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []string
			for _, f := range tt.files {
				paths = append(paths, filepath.Join("/proj", f))
			}
			got, err := DetectLanguage(context.Background(), memFS(paths...), "/proj")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDetectLanguageUnknown(t *testing.T) {
	fs := memFS("/proj/README.md", "/proj/src/main.rs")
	if _, err := DetectLanguage(context.Background(), fs, "/proj"); !errors.Is(err, ErrLanguageUnknown) {
		t.Errorf("expected ErrLanguageUnknown, got %v", err)
	}
	if _, err := DetectLanguage(context.Background(), fs, "/missing"); !errors.Is(err, files.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindRoot(t *testing.T) {
	fs := memFS(
		"/work/app/go.mod",
		"/work/app/internal/pkg/file.go",
		"/work/repo/.git/HEAD",
		"/work/repo/src/lib/x.py",
		"/work/dotnet/Service.csproj",
		"/work/dotnet/src/a.cs",
		"/work/loose/notes.txt",
	)

	tests := []struct {
		start string
		want  string
	}{
		{"/work/app/internal/pkg", "/work/app"},
		{"/work/app", "/work/app"},
		{"/work/repo/src/lib", "/work/repo"},
		{"/work/dotnet/src", "/work/dotnet"},
		{"/work/app/internal/missing", "/work/app"},
	}

	for _, tt := range tests {
		got, err := FindRoot(context.Background(), fs, tt.start)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.start, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.start, tt.want, got)
		}
	}

	if _, err := FindRoot(context.Background(), fs, "/work/loose"); !errors.Is(err, ErrRootNotFound) {
		t.Errorf("expected ErrRootNotFound, got %v", err)
	}
}

func TestFindRootCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FindRoot(ctx, memFS("/a/go.mod"), "/a"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDetect(t *testing.T) {
	fs := memFS("/work/app/go.mod", "/work/app/cmd/main.go", "/work/loose/a.rs")

	info, err := Detect(context.Background(), fs, "/work/app/cmd")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	want := Info{Root: "/work/app", Name: "app", Language: Go}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}

	info, err = Detect(context.Background(), fs, "/work/loose")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	want = Info{Root: "/work/loose", Name: "loose", Language: Rust}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"/work/app":  "app",
		"/work/app/": "app",
		"/":          "",
	}
	for root, want := range tests {
		if got := Name(root); got != want {
			t.Errorf("Name(%q): expected %q, got %q", root, want, got)
		}
	}
}
