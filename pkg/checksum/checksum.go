package checksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sdejongh/locsync/pkg/models"
	"github.com/spf13/afero"
)

// DefaultBufferSize is used when the caller passes a smaller buffer
const DefaultBufferSize = 64 * 1024

// Sum is the fingerprint of a file together with its size in bytes
type Sum struct {
	Fingerprint string
	Size        int64
}

// Service computes SHA-256 fingerprints, reusing read buffers across calls
type Service struct {
	fs         afero.Fs
	bufferPool *sync.Pool
}

// New creates a checksum service reading through fs
func New(fs afero.Fs, bufferSize int) *Service {
	if bufferSize < 4096 {
		bufferSize = DefaultBufferSize
	}
	return &Service{
		fs: fs,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Fingerprint streams r and returns its lowercase hex SHA-256 and length
func (s *Service) Fingerprint(ctx context.Context, r io.Reader) (Sum, error) {
	bufPtr := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(bufPtr)
	buf := *bufPtr

	hasher := sha256.New()
	var size int64
	for {
		select {
		case <-ctx.Done():
			return Sum{}, ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			size += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Sum{}, err
		}
	}

	return Sum{Fingerprint: hex.EncodeToString(hasher.Sum(nil)), Size: size}, nil
}

// FingerprintFile hashes the file at path. Any failure, including the file
// vanishing mid-read, is reported as *models.IOError.
func (s *Service) FingerprintFile(ctx context.Context, path string) (Sum, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return Sum{}, &models.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	sum, err := s.Fingerprint(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return Sum{}, err
		}
		return Sum{}, &models.IOError{Op: "read", Path: path, Err: err}
	}
	return sum, nil
}

// Bytes returns the lowercase hex SHA-256 of data
func Bytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Valid reports whether s looks like a lowercase hex SHA-256 digest
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// RemoteInfoScript returns a POSIX shell loop that reads paths from stdin
// and prints "<sha256> <size> <path>" for each, as parsed by ParseInfoOutput
func RemoteInfoScript() string {
	return `while IFS= read -r f; do ` +
		`h=$(sha256sum < "$f") || exit 1; ` +
		`s=$(wc -c < "$f") || exit 1; ` +
		`printf '%s %s %s\n' "${h%% *}" "$((s))" "$f"; done`
}

// ParseInfoOutput parses the output of RemoteInfoScript into sums keyed by path
func ParseInfoOutput(r io.Reader) (map[string]Sum, error) {
	sums := make(map[string]Sum)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed checksum line %q", line)
		}
		hexsum := strings.ToLower(fields[0])
		if !Valid(hexsum) {
			return nil, fmt.Errorf("malformed checksum %q for %s", fields[0], fields[2])
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed size %q for %s", fields[1], fields[2])
		}
		sums[fields[2]] = Sum{Fingerprint: hexsum, Size: size}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksum output: %w", err)
	}
	return sums, nil
}
