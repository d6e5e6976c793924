// Package generation invokes the AI backend that turns a rendered
// prompt into an explanation. Results are delivered through a
// pull-based Stream so the consumer controls pacing and can stop
// early; closing the stream stops the producer.
package generation

import "context"

// Generator produces an explanation stream for a prompt.
type Generator interface {
	// Generate starts a generation run. The returned stream is
	// single-consumption: once drained or closed it cannot be
	// restarted. Cancelling ctx terminates production.
	Generate(ctx context.Context, prompt string) (Stream, error)
}

// Stream is an ordered, finite sequence of text chunks. Call Next
// until it returns false, reading each chunk with Current, then check
// Err to distinguish clean completion from failure.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// ── Fixed-size chunking ──────────────────────────────────────

// Chunked re-slices a stream into fixed-size pieces. Delivery
// granularity to clients stays uniform regardless of how the backend
// sizes its deltas. The final piece may be shorter.
func Chunked(inner Stream, size int) Stream {
	return &chunked{inner: inner, size: size}
}

type chunked struct {
	inner   Stream
	size    int
	buf     string
	current string
}

func (c *chunked) Next() bool {
	for len(c.buf) < c.size {
		if !c.inner.Next() {
			break
		}
		c.buf += c.inner.Current()
	}
	if c.inner.Err() != nil || len(c.buf) == 0 {
		return false
	}

	n := c.size
	if len(c.buf) < n {
		n = len(c.buf)
	}
	c.current = c.buf[:n]
	c.buf = c.buf[n:]
	return true
}

func (c *chunked) Current() string {
	return c.current
}

func (c *chunked) Err() error {
	return c.inner.Err()
}

func (c *chunked) Close() error {
	return c.inner.Close()
}

// ── Static streams ───────────────────────────────────────────

// SliceStream adapts a fixed set of chunks to the Stream interface.
// Used in tests and wherever an already materialized text needs to be
// served through the streaming path.
type SliceStream struct {
	chunks []string
	idx    int
}

func NewSliceStream(chunks ...string) *SliceStream {
	return &SliceStream{chunks: chunks}
}

func (s *SliceStream) Next() bool {
	if s.idx >= len(s.chunks) {
		return false
	}
	s.idx++
	return true
}

func (s *SliceStream) Current() string {
	if s.idx == 0 || s.idx > len(s.chunks) {
		return ""
	}
	return s.chunks[s.idx-1]
}

func (s *SliceStream) Err() error { return nil }

func (s *SliceStream) Close() error {
	s.idx = len(s.chunks)
	return nil
}
