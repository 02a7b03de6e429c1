// Package workspace discovers project files on disk and loads them as index items.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/modelindex/internal/fileid"
	"github.com/hyperjump/modelindex/internal/models"
	"go.uber.org/zap"
)

// ErrTooLarge is returned by LoadFile for files above the configured size limit.
var ErrTooLarge = errors.New("file exceeds max size")

// Options controls discovery.
type Options struct {
	// Extensions lists the extensions to load, with leading dot. Matching is
	// case-sensitive to mirror processor resolution. Empty means every file.
	Extensions []string
	// Ignore holds filepath.Match patterns checked against file and directory base names.
	Ignore []string
	// Recursive descends into subdirectories.
	Recursive bool
	// MaxFileSize skips files larger than this many bytes. 0 means no limit.
	MaxFileSize int64
	Logger      *zap.Logger
}

// Discover walks root and returns one item per matching regular file, in
// lexical path order. Hidden and ignored directories are not entered.
// Unreadable files are logged and skipped.
func Discover(ctx context.Context, root string, opts Options) ([]*models.IndexItem, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}

	var items []*models.IndexItem
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !opts.Recursive || IsHidden(d.Name()) || Ignored(d.Name(), opts.Ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !MatchExtension(path, opts.Extensions) || Ignored(d.Name(), opts.Ignore) {
			return nil
		}
		item, err := LoadFile(path, opts.MaxFileSize)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Debug("workspace skipping file", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// LoadFile reads the regular file at path into an unprocessed IndexItem.
// Symlinks are followed. Invalid UTF-8 is replaced with U+FFFD.
func LoadFile(path string, maxSize int64) (*models.IndexItem, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s (%d bytes): %w", absPath, info.Size(), ErrTooLarge)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}
	modTime := info.ModTime()
	return models.NewIndexItem(&models.File{
		Contents:     string(content),
		Dir:          filepath.Dir(absPath),
		Ext:          filepath.Ext(absPath),
		LastModified: &modTime,
		Name:         filepath.Base(absPath),
		Path:         absPath,
		URI:          fileid.URI(absPath),
	}), nil
}

// MatchExtension reports whether path ends with one of exts. An empty list matches everything.
func MatchExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	return slices.Contains(exts, filepath.Ext(path))
}

// Ignored reports whether name matches any of the patterns.
func Ignored(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// IsHidden reports whether name is a dot file or directory.
func IsHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
