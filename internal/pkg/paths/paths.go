package paths

import (
	"os"
	"path/filepath"
)

var (
	projectRoot string
)

// Resolve 相对路径依次在工作目录、可执行文件目录、项目根目录下查找
// 都找不到时返回基于工作目录的路径
func Resolve(relativePath string) string {
	if filepath.IsAbs(relativePath) {
		return relativePath
	}
	if exists(relativePath) {
		return relativePath
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), relativePath)
		if exists(candidate) {
			return candidate
		}
	}

	if root, ok := ProjectRoot(); ok {
		candidate := filepath.Join(root, relativePath)
		if exists(candidate) {
			return candidate
		}
	}
	return relativePath
}

// ProjectRoot 从工作目录向上查找项目根目录
func ProjectRoot() (string, bool) {
	if projectRoot != "" {
		return projectRoot, true
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	if dir, ok := findRoot(wd); ok {
		projectRoot = dir
		return dir, true
	}
	return "", false
}

func findRoot(dir string) (string, bool) {
	for i := 0; i < 10; i++ { // 最多回溯10层
		if isProjectRoot(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func isProjectRoot(dir string) bool {
	markers := []string{"go.mod", ".git", "project.root"}
	for _, marker := range markers {
		if exists(filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
