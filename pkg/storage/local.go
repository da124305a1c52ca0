package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Local is a filesystem-based storage backend rooted at one directory
type Local struct {
	fs       afero.Fs
	rootPath string
}

// NewLocal creates a local backend over fs. The root may not exist yet
// (it is created by the first write) but must not be a regular file.
func NewLocal(fs afero.Fs, rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := fs.Stat(absPath)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	case err != nil && !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	return &Local{fs: fs, rootPath: absPath}, nil
}

// Root returns the absolute root directory
func (l *Local) Root() string {
	return l.rootPath
}

// Abs returns the absolute path of a root-relative path
func (l *Local) Abs(path string) string {
	return filepath.Join(l.rootPath, filepath.FromSlash(path))
}

// List returns all entries under the directory recursively
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := l.Abs(path)
	var files []FileInfo

	err := afero.Walk(l.fs, fullPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}

		files = append(files, FileInfo{
			Path:         p,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
			Permissions:  uint32(info.Mode().Perm()),
			RelativePath: filepath.ToSlash(relPath),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(l.Abs(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Write creates or overwrites a file
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath := l.Abs(path)

	// Ensure parent directory exists
	if err := l.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := l.fs.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, reader)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if size >= 0 && written != size {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	if metadata != nil {
		if !metadata.ModTime.IsZero() {
			if err := l.fs.Chtimes(fullPath, metadata.ModTime, metadata.ModTime); err != nil {
				return fmt.Errorf("failed to set modification time: %w", err)
			}
		}

		if metadata.Permissions != 0 {
			if err := l.fs.Chmod(fullPath, os.FileMode(metadata.Permissions)); err != nil {
				return fmt.Errorf("failed to set permissions: %w", err)
			}
		}
	}

	return nil
}

// Delete removes a file
func (l *Local) Delete(ctx context.Context, path string) error {
	if err := l.fs.Remove(l.Abs(path)); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := afero.Exists(l.fs, l.Abs(path))
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return ok, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.Abs(path)

	info, err := l.fs.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: filepath.ToSlash(relPath),
	}, nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := l.fs.MkdirAll(l.Abs(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// CopyFile copies one file between two backends, preserving its modification
// time and permissions. wrap may be nil.
func CopyFile(ctx context.Context, src Backend, srcPath string, dst Backend, dstPath string, wrap ReaderWrapper) error {
	info, err := src.Stat(ctx, srcPath)
	if err != nil {
		return err
	}
	if info.IsDir {
		return fmt.Errorf("not a regular file: %s", srcPath)
	}

	rc, err := src.Read(ctx, srcPath)
	if err != nil {
		return err
	}
	defer rc.Close()

	var r io.Reader = rc
	if wrap != nil {
		r = wrap(r)
	}

	return dst.Write(ctx, dstPath, r, info.Size, info)
}

// MoveFile renames a file between two local roots on the same filesystem,
// falling back to copy and delete when the rename crosses devices
func MoveFile(ctx context.Context, src *Local, srcPath string, dst *Local, dstPath string, wrap ReaderWrapper) error {
	to := dst.Abs(dstPath)
	if err := dst.fs.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err := src.fs.Rename(src.Abs(srcPath), to)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return fmt.Errorf("failed to rename: %w", err)
	}

	if err := CopyFile(ctx, src, srcPath, dst, dstPath, wrap); err != nil {
		return err
	}
	return src.Delete(ctx, srcPath)
}
