package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func rels(files []File) map[string]bool {
	out := make(map[string]bool, len(files))
	for _, f := range files {
		out[f.Rel] = true
	}
	return out
}

func TestDiscover_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tokyo-solo.mdx", "a")
	writeFile(t, root, "domestic/kanto/yokohama.mdx", "b")
	writeFile(t, root, "notes.txt", "not content")
	writeFile(t, root, "domestic/readme.md", "wrong extension")

	src, err := NewFS([]string{root})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	files, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2: %+v", len(files), files)
	}
	got := rels(files)
	if !got["tokyo-solo.mdx"] || !got["domestic/kanto/yokohama.mdx"] {
		t.Errorf("rels = %v", got)
	}
	for _, f := range files {
		if f.Root != src.Roots()[0] {
			t.Errorf("root = %q, want %q", f.Root, src.Roots()[0])
		}
		if f.Size == 0 || f.ModTime.IsZero() {
			t.Errorf("missing stat info on %+v", f)
		}
	}
}

func TestDiscover_MultipleExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mdx", "a")
	writeFile(t, root, "b.MD", "b")

	src, _ := NewFS([]string{root}, ".mdx", "md")
	files, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("len(files) = %d, want 2", len(files))
	}
}

func TestNewFS_NormalisesExtensions(t *testing.T) {
	src, err := NewFS([]string{t.TempDir()}, ".MDX", " md ")
	if err != nil {
		t.Fatal(err)
	}
	got := src.Extensions()
	if len(got) != 2 || got[0] != ".mdx" || got[1] != ".md" {
		t.Errorf("Extensions() = %v, want [.mdx .md]", got)
	}

	def, _ := NewFS([]string{t.TempDir()})
	if got := def.Extensions(); len(got) != 1 || got[0] != DefaultExtension {
		t.Errorf("default Extensions() = %v", got)
	}
}

func TestDiscover_MissingRootSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mdx", "a")
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	only, _ := NewFS([]string{root})
	both, _ := NewFS([]string{missing, root})

	a, err := only.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	b, err := both.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover with missing root: %v", err)
	}
	if len(a) != len(b) || a[0].Rel != b[0].Rel {
		t.Errorf("missing root changed result: %+v vs %+v", a, b)
	}
}

func TestDiscover_RootOrderPreserved(t *testing.T) {
	legacy := t.TempDir()
	nested := t.TempDir()
	writeFile(t, legacy, "z.mdx", "z")
	writeFile(t, nested, "a.mdx", "a")

	src, _ := NewFS([]string{legacy, nested})
	files, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 || files[0].Rel != "z.mdx" || files[1].Rel != "a.mdx" {
		t.Errorf("files = %+v, want legacy root first", files)
	}
}

func TestDiscover_RootIsFile(t *testing.T) {
	f, err := os.CreateTemp("", "wanderlog-root-*")
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	defer os.Remove(f.Name())

	src, _ := NewFS([]string{f.Name()})
	if _, err := src.Discover(context.Background()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mdx", "a")
	src, _ := NewFS([]string{root})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Discover(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestNewFS_NoRoots(t *testing.T) {
	if _, err := NewFS(nil); err == nil {
		t.Error("expected error with no roots")
	}
}

func TestRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mdx", "hello")
	src, _ := NewFS([]string{root})
	files, _ := src.Discover(context.Background())

	data, err := src.Read(files[0])
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
}

func TestRead_TraversalBlocked(t *testing.T) {
	root := t.TempDir()
	src, _ := NewFS([]string{root})

	cases := []File{
		{Root: src.Roots()[0], Path: filepath.Join(src.Roots()[0], "..", "outside.mdx")},
		{Root: "/etc", Path: "/etc/passwd"},
		{Root: src.Roots()[0], Path: "/etc/shadow"},
	}
	for _, f := range cases {
		if _, err := src.Read(f); err == nil {
			t.Errorf("expected error for %+v", f)
		}
	}
}

func TestFingerprint_ChangesOnEdit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mdx", "one")
	src, _ := NewFS([]string{root})
	ctx := context.Background()

	fp1, err := src.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fp2, _ := src.Fingerprint(ctx)
	if fp1 != fp2 {
		t.Error("fingerprint not stable for unchanged tree")
	}

	p := filepath.Join(root, "a.mdx")
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(p, later, later); err != nil {
		t.Fatal(err)
	}
	fp3, _ := src.Fingerprint(ctx)
	if fp3 == fp1 {
		t.Error("fingerprint unchanged after touch")
	}

	writeFile(t, root, "b.mdx", "two")
	fp4, _ := src.Fingerprint(ctx)
	if fp4 == fp3 {
		t.Error("fingerprint unchanged after new file")
	}
}
