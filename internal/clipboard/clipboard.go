package clipboard

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"
)

type Status string

const (
	StatusInactive Status = "inactive"
	StatusCopied   Status = "copied"
	StatusFailed   Status = "failed"
)

// Writer puts text on some clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// Copier copies text and exposes a status that falls back to inactive
// resetAfter the last copy.
type Copier struct {
	w          Writer
	resetAfter time.Duration

	mu     sync.Mutex
	status Status
	reset  *time.Timer
	gen    uint64
}

func NewCopier(w Writer, resetAfter time.Duration) *Copier {
	return &Copier{w: w, resetAfter: resetAfter, status: StatusInactive}
}

// Copy writes text and returns the resulting status. The write error, if
// any, is returned as well.
func (c *Copier) Copy(ctx context.Context, text string) (Status, error) {
	err := c.w.WriteText(ctx, text)

	st := StatusCopied
	if err != nil {
		st = StatusFailed
		err = fmt.Errorf("failed to copy text: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = st
	if c.reset != nil {
		c.reset.Stop()
	}
	c.gen++
	gen := c.gen
	c.reset = time.AfterFunc(c.resetAfter, func() { c.expire(gen) })
	return st, err
}

// expire ignores timers superseded by a later copy.
func (c *Copier) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.status = StatusInactive
	c.reset = nil
}

func (c *Copier) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close cancels a pending reset.
func (c *Copier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

// Buffer keeps the last copied text in memory, for API clients that fetch
// it themselves.
type Buffer struct {
	mu   sync.RWMutex
	text string
}

func (b *Buffer) WriteText(_ context.Context, text string) error {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
	return nil
}

func (b *Buffer) Last() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Terminal sets the system clipboard of the attached terminal with an OSC 52
// escape sequence.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}
