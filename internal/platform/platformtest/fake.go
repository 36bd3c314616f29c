// Package platformtest provides an in-memory platform.Environment for tests.
package platformtest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jeanhaley32/klotho/internal/platform"
)

var _ platform.Environment = (*Env)(nil)

// Env is a fake platform.Environment. Paths listed in Dirs or Files exist;
// a file's parent directories exist implicitly.
type Env struct {
	Vars        map[string]string
	Files       map[string]string
	Dirs        map[string]bool
	Executables map[string]bool
	Cwd         string
	// Links maps a path to the path it canonicalizes to.
	Links map[string]string
}

// New returns an empty fake environment rooted at /work.
func New() *Env {
	return &Env{
		Vars:        map[string]string{},
		Files:       map[string]string{},
		Dirs:        map[string]bool{},
		Executables: map[string]bool{},
		Links:       map[string]string{},
		Cwd:         "/work",
	}
}

func (e *Env) Getenv(key string) string {
	return e.Vars[key]
}

func (e *Env) LookupEnv(key string) (string, bool) {
	v, ok := e.Vars[key]
	return v, ok
}

func (e *Env) Exists(path string) bool {
	path = filepath.Clean(path)
	if e.Dirs[path] {
		return true
	}
	if _, ok := e.Files[path]; ok {
		return true
	}
	for f := range e.Files {
		if strings.HasPrefix(f, path+"/") {
			return true
		}
	}
	for d := range e.Dirs {
		if strings.HasPrefix(d, path+"/") {
			return true
		}
	}
	return false
}

func (e *Env) ReadFile(path string) ([]byte, error) {
	content, ok := e.Files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return []byte(content), nil
}

func (e *Env) Getwd() (string, error) {
	return e.Cwd, nil
}

func (e *Env) Canonicalize(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Cwd, path)
	}
	path = filepath.Clean(path)
	if target, ok := e.Links[path]; ok {
		return target, nil
	}
	if !e.Exists(path) {
		return "", fmt.Errorf("lstat %s: %w", path, fs.ErrNotExist)
	}
	return path, nil
}

func (e *Env) ProbeExecutable(name string) bool {
	return e.Executables[name]
}
