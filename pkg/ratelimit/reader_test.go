package ratelimit

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

// TestNewLimiter tests the Limiter constructor
func TestNewLimiter(t *testing.T) {
	t.Run("ValidBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1024 * 1024)
		if limiter == nil {
			t.Fatal("NewLimiter() returned nil for valid input")
		}
		if limiter.BytesPerSecond() != 1024*1024 {
			t.Errorf("BytesPerSecond() = %d, want %d", limiter.BytesPerSecond(), 1024*1024)
		}
	})

	t.Run("ZeroBytesPerSecond", func(t *testing.T) {
		if NewLimiter(0) != nil {
			t.Error("NewLimiter(0) should return nil (no limiting)")
		}
	})

	t.Run("NegativeBytesPerSecond", func(t *testing.T) {
		if NewLimiter(-100) != nil {
			t.Error("NewLimiter(-100) should return nil (no limiting)")
		}
	})

	t.Run("SmallBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1000)
		if limiter.Burst() < 65536 {
			t.Errorf("Burst() = %d, want at least 65536", limiter.Burst())
		}
	})

	t.Run("LargeBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(100 * 1024 * 1024)
		if limiter.Burst() != 100*1024*1024 {
			t.Errorf("Burst() = %d, want %d", limiter.Burst(), 100*1024*1024)
		}
	})

	t.Run("NilLimiterRate", func(t *testing.T) {
		var limiter *Limiter
		if limiter.BytesPerSecond() != 0 {
			t.Error("nil limiter should report 0")
		}
	})
}

func TestNewReader(t *testing.T) {
	base := strings.NewReader("content")

	if NewReader(context.Background(), base, nil) != io.Reader(base) {
		t.Error("NewReader() should return original reader when limiter is nil")
	}
	if _, ok := NewReader(context.Background(), base, NewLimiter(1024)).(*Reader); !ok {
		t.Error("NewReader() should return *Reader when limiter is provided")
	}
}

func TestReaderRead(t *testing.T) {
	t.Run("MultipleReads", func(t *testing.T) {
		content := []byte("0123456789abcdef")
		reader := NewReader(context.Background(), bytes.NewReader(content), NewLimiter(1024*1024))

		var result []byte
		buf := make([]byte, 4)
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				result = append(result, buf[:n]...)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
		}

		if !bytes.Equal(result, content) {
			t.Errorf("Read() accumulated = %s, want %s", string(result), string(content))
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := NewReader(ctx, bytes.NewReader(make([]byte, 1024)), NewLimiter(1024*1024))
		if _, err := reader.Read(make([]byte, 100)); err == nil {
			t.Error("Read() should return error on cancelled context")
		}
	})
}

func TestReadCloser(t *testing.T) {
	t.Run("WithLimiter", func(t *testing.T) {
		reader := NewReadCloser(context.Background(), io.NopCloser(strings.NewReader("test content")), NewLimiter(1024*1024))
		if _, ok := reader.(*ReadCloser); !ok {
			t.Error("NewReadCloser() should return *ReadCloser when limiter is provided")
		}
		data, err := io.ReadAll(reader)
		if err != nil || string(data) != "test content" {
			t.Errorf("ReadAll() = %q, %v", data, err)
		}
		if err := reader.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("NilLimiter", func(t *testing.T) {
		base := io.NopCloser(strings.NewReader("test content"))
		if NewReadCloser(context.Background(), base, nil) != base {
			t.Error("NewReadCloser() should return original reader when limiter is nil")
		}
	})
}

// TestRateLimiting reads one burst plus one second worth of data
func TestRateLimiting(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	const bytesPerSecond = 20000
	limiter := NewLimiter(bytesPerSecond)
	content := make([]byte, limiter.Burst()+bytesPerSecond)
	reader := NewReader(context.Background(), bytes.NewReader(content), limiter)

	start := time.Now()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("elapsed = %v, want rate limiting to slow the copy", elapsed)
	}
}

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1500", 1500, false},
		{"10MB", 10 * 1000 * 1000, false},
		{"512KiB", 512 * 1024, false},
		{"2MB/s", 2 * 1000 * 1000, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBandwidth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBandwidth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBandwidth(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnitConversions(t *testing.T) {
	if got := KiBPerSecond(1024 * 1024); got != 1024 {
		t.Errorf("KiBPerSecond() = %d, want 1024", got)
	}
	if got := KiBPerSecond(1); got != 1 {
		t.Errorf("KiBPerSecond(1) = %d, want 1", got)
	}
	if got := KbitPerSecond(1000); got != 8 {
		t.Errorf("KbitPerSecond() = %d, want 8", got)
	}
	if got := KbitPerSecond(0); got != 0 {
		t.Errorf("KbitPerSecond(0) = %d, want 0", got)
	}
}
