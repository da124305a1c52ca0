package transfer

import (
	"io"
	"time"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond
	progressReportBytes    = 64 * 1024
)

// progressReader wraps an io.Reader to report the bytes read, throttled by
// volume and time
type progressReader struct {
	reader         io.Reader
	unreported     int64
	lastReportTime time.Time
	onProgress     func(n int64)
}

func newProgressReader(r io.Reader, onProgress func(n int64)) *progressReader {
	return &progressReader{reader: r, lastReportTime: time.Now(), onProgress: onProgress}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.unreported += int64(n)
	}
	if pr.unreported > 0 &&
		(pr.unreported >= progressReportBytes || time.Since(pr.lastReportTime) >= progressReportInterval || err != nil) {
		pr.onProgress(pr.unreported)
		pr.unreported = 0
		pr.lastReportTime = time.Now()
	}
	return n, err
}

// flush reports bytes still pending, e.g. when the writer stopped reading
// before EOF
func (pr *progressReader) flush() {
	if pr.unreported > 0 {
		pr.onProgress(pr.unreported)
		pr.unreported = 0
	}
}
