package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "project.root"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := findRoot(nested)
	if !ok || got != root {
		t.Errorf("findRoot = %q, %v, want %q", got, ok, root)
	}
}

func TestResolve(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "settings.ini")
	if got := Resolve(abs); got != abs {
		t.Errorf("absolute path changed: %q", got)
	}

	// 源码目录下运行测试时可以找到仓库根目录的 go.mod
	if got := Resolve("go.mod"); !exists(got) {
		t.Errorf("Resolve(go.mod) = %q, file does not exist", got)
	}

	missing := "definitely/not/here.ini"
	if got := Resolve(missing); got != missing {
		t.Errorf("Resolve(missing) = %q, want unchanged", got)
	}
}
