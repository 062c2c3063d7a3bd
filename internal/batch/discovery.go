package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// isInput reports whether path is a photo or PDF scan the corrector can read.
func isInput(path string) bool {
	return utils.IsSupportedImage(path) || strings.EqualFold(filepath.Ext(path), ".pdf")
}

// nameFilter selects inputs by glob patterns on their base name. Exclusion
// wins over inclusion; no include patterns means everything not excluded.
type nameFilter struct {
	include []string
	exclude []string
}

func (f nameFilter) allows(path string) bool {
	base := filepath.Base(path)
	if matchesAnyPattern(base, f.exclude) {
		return false
	}
	return len(f.include) == 0 || matchesAnyPattern(base, f.include)
}

func matchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// discoverInputs expands args into input files. Directories contribute the
// readable inputs they hold, descending only when recursive. A file named
// explicitly is kept whatever its extension, so a bad one fails on its own.
func discoverInputs(args []string, recursive bool, include, exclude []string) ([]string, error) {
	filter := nameFilter{include: include, exclude: exclude}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if filter.allows(arg) {
				files = append(files, arg)
			}
			continue
		}
		found, err := walkInputs(arg, recursive, filter)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// walkInputs lists the inputs under root in lexical order.
func walkInputs(root string, recursive bool, filter nameFilter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && path != root && !recursive:
			return filepath.SkipDir
		case !d.IsDir() && isInput(path) && filter.allows(path):
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
