package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// minBurst keeps small limits from degrading into tiny reads
const minBurst = 64 * 1024

// Limiter controls the rate of data transfer across multiple readers
type Limiter struct {
	bytesPerSecond int64
	limiter        *rate.Limiter
}

// NewLimiter creates a limiter for bytesPerSecond. A non-positive value
// means unlimited and returns nil.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// Burst is one second worth of data, 64KB minimum
	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		limiter:        rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
	}
}

// BytesPerSecond returns the configured rate
func (l *Limiter) BytesPerSecond() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest chunk a single read may consume
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps an io.Reader with rate limiting
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{reader: reader, limiter: limiter, ctx: ctx}
}

// Read reads at most one burst and then waits until the bytes read are
// covered by the limiter
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// ReadCloser wraps an io.ReadCloser with rate limiting
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps an io.ReadCloser with rate limiting
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{
		Reader: Reader{reader: rc, limiter: limiter, ctx: ctx},
		closer: rc,
	}
}

// Close implements io.Closer
func (rc *ReadCloser) Close() error {
	return rc.closer.Close()
}

// ParseBandwidth parses a human readable rate such as "10MB", "512KiB" or
// "1500" (bytes per second). Empty and "0" mean unlimited.
func ParseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/s"), "ps")
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// KiBPerSecond converts a byte rate to rsync's --bwlimit unit, rounding up
func KiBPerSecond(bytesPerSecond int64) int64 {
	if bytesPerSecond <= 0 {
		return 0
	}
	return (bytesPerSecond + 1023) / 1024
}

// KbitPerSecond converts a byte rate to scp's -l unit, rounding up
func KbitPerSecond(bytesPerSecond int64) int64 {
	if bytesPerSecond <= 0 {
		return 0
	}
	return (bytesPerSecond*8 + 999) / 1000
}
