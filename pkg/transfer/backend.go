// Package transfer moves bytes between locations: directly through the
// filesystem, through rsync, or file by file through scp.
package transfer

import (
	"context"
	"fmt"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/models"
)

// Request names the files to copy or move from one root to another. Paths
// are relative and keep their layout below the destination root.
type Request struct {
	SourceRoot string
	SourceHost string
	DestRoot   string
	DestHost   string
	Files      []string
	// Sizes is optional and only feeds progress totals
	Sizes map[string]int64
	// Checksum forces a content comparison where a backend would otherwise
	// skip files of equal size and mtime
	Checksum bool
}

// RemoveRequest names files to delete below one root
type RemoveRequest struct {
	Root  string
	Host  string
	Files []string
}

// Backend performs filesystem-level operations for a plan. Every method
// stops at the first failing file; completed files are not rolled back.
type Backend interface {
	Name() string
	Copy(ctx context.Context, req Request) error
	Move(ctx context.Context, req Request) error
	Remove(ctx context.Context, req RemoveRequest) error
}

// Progress receives transfer progress
type Progress interface {
	// Start announces the number of files and bytes (-1 when unknown)
	Start(files int, bytes int64)
	// BeginFile is called before a file is transferred
	BeginFile(path string, size int64)
	// Add reports bytes transferred for the current file
	Add(n int64)
	// EndFile is called once a file completed
	EndFile(path string)
	// Finish is called when the batch ends, successfully or not
	Finish()
}

// NoProgress discards progress updates
type NoProgress struct{}

func (NoProgress) Start(int, int64)        {}
func (NoProgress) BeginFile(string, int64) {}
func (NoProgress) Add(int64)               {}
func (NoProgress) EndFile(string)          {}
func (NoProgress) Finish()                 {}

// Kind identifies a backend implementation
type Kind string

const (
	KindLocal       Kind = "local"
	KindMirror      Kind = "mirror"
	KindRemoteShell Kind = "remote-shell"
)

// Capabilities describes which external tools are installed
type Capabilities struct {
	MirrorAvailable bool
	ShellAvailable  bool
}

// Select picks the backend for an operation. It prefers rsync, then a
// direct copy when both sides are local, then scp. Moves and removals
// never span two hosts.
func Select(caps Capabilities, srcHost, dstHost string, op models.OperationKind) (Kind, error) {
	srcRemote := platform.IsRemote(srcHost)
	dstRemote := platform.IsRemote(dstHost)

	switch op {
	case models.OperationRemove:
		if !srcRemote {
			return KindLocal, nil
		}
		if !caps.ShellAvailable {
			return "", fmt.Errorf("cannot remove files on %s: no remote shell available", srcHost)
		}
		return KindRemoteShell, nil

	case models.OperationMove:
		if srcRemote || dstRemote {
			if srcHost != dstHost {
				return "", &models.InvariantViolation{Reason: "cannot move files across hosts"}
			}
			return "", &models.InvariantViolation{Reason: "cannot move from remote"}
		}
		if caps.MirrorAvailable {
			return KindMirror, nil
		}
		return KindLocal, nil

	case models.OperationCopy:
		if srcRemote && dstRemote {
			return "", &models.InvariantViolation{Reason: "cannot copy between two remote locations"}
		}
		if caps.MirrorAvailable {
			return KindMirror, nil
		}
		if !srcRemote && !dstRemote {
			return KindLocal, nil
		}
		if !caps.ShellAvailable {
			return "", fmt.Errorf("cannot reach remote host: neither rsync nor scp is available")
		}
		return KindRemoteShell, nil

	default:
		return "", &models.ValidationError{Field: "operation", Message: fmt.Sprintf("unknown operation %q", op)}
	}
}

func progressOrNop(p Progress) Progress {
	if p == nil {
		return NoProgress{}
	}
	return p
}

// totalSize sums the known sizes of req's files, -1 if any is unknown
func totalSize(req Request) int64 {
	var total int64
	for _, f := range req.Files {
		n, ok := req.Sizes[f]
		if !ok {
			return -1
		}
		total += n
	}
	return total
}

func sizeOf(req Request, path string) int64 {
	if n, ok := req.Sizes[path]; ok {
		return n
	}
	return -1
}
