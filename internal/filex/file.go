// Package filex holds filesystem helpers shared by the upload store and the
// static site browser.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// Resolve maps a caller-supplied path onto the filesystem under root. Relative
// paths are joined to root, absolute ones are taken as is. The result must be
// root itself or lie below it, otherwise common.ErrAccessDenied is returned.
// Resolve never touches the filesystem.
func Resolve(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", root, err)
	}

	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	if !within(absRoot, target) {
		return "", fmt.Errorf("%w: %s", common.ErrAccessDenied, p)
	}
	return target, nil
}

// ResolveReal is Resolve followed by a check of the filesystem: the deepest
// existing part of the result, with symlinks followed, must still lie under
// the real root. Dangling symlinks are rejected since writes would follow
// them. The returned path is the lexical one.
func ResolveReal(root, p string) (string, error) {
	target, err := Resolve(root, p)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", root, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("root %s: %w", root, err)
	}

	existing := target
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return target, nil
		}
		existing = parent
	}

	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", common.ErrAccessDenied, p, err)
	}
	if !within(realRoot, real) {
		return "", fmt.Errorf("%w: %s", common.ErrAccessDenied, p)
	}
	return target, nil
}

func within(root, target string) bool {
	return target == root || strings.HasPrefix(target, root+string(filepath.Separator))
}
