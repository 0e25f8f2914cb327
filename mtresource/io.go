package mtresource

import (
	"context"
	"io"
)

// RateLimitedWriter throttles writes of an encoded manifest blob
// through a Controller's configured I/O rate before handing them to
// the underlying writer.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter wraps w so every Write first clears rc's I/O
// rate limit. rc may be nil, in which case writes pass through
// unthrottled.
func NewRateLimitedWriter(w io.Writer, rc *Controller, ctx context.Context) *RateLimitedWriter {
	return &RateLimitedWriter{
		w:   w,
		rc:  rc,
		ctx: ctx,
	}
}

func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader throttles reads of a manifest blob through a
// Controller's configured I/O rate before pulling bytes from the
// underlying reader.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader wraps r so every Read first clears rc's I/O
// rate limit. rc may be nil, in which case reads pass through
// unthrottled.
func NewRateLimitedReader(r io.Reader, rc *Controller, ctx context.Context) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

// Read charges the read's maximum possible size against rc's limiter
// before delegating, since the actual bytes returned aren't known
// until after the underlying Read completes.
func (r *RateLimitedReader) Read(p []byte) (n int, err error) {
	if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
