package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the printer goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ignored", Ignored.String())
	assert.Equal(t, "queued", Queued.String())
	assert.Equal(t, "in progress", InProgress.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestCounts(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{}, 5)
	completed, queued := p.Counts()
	assert.Equal(t, 0, completed)
	assert.Equal(t, 5, queued)

	p.SetStatus(0, Ignored)
	p.SetStatus(1, InProgress)
	p.SetStatus(2, Done)
	p.SetStatus(3, Failed)
	p.SetStatus(99, Done) // out of range, dropped

	completed, queued = p.Counts()
	assert.Equal(t, 3, completed)
	assert.Equal(t, 2, queued)
	assert.Equal(t, 1, p.Failures())
	assert.Equal(t, InProgress, p.Status(1))
}

func TestPrintOnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 4)

	require.True(t, p.Print())
	assert.Equal(t, "0 of 4 completed (0.00%)\n", buf.String())

	assert.False(t, p.Print(), "unchanged counts should not print")

	p.SetStatus(0, Done)
	p.SetStatus(1, InProgress)
	require.True(t, p.Print())
	assert.True(t, strings.HasSuffix(buf.String(), "1 of 4 completed (25.00%)\n"), buf.String())

	p.SetStatus(2, Failed)
	require.True(t, p.Print())
	assert.True(t, strings.HasSuffix(buf.String(), "2 of 4 completed (50.00%), 1 failed\n"), buf.String())
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 0)
	require.True(t, p.Print())
	assert.Equal(t, "0 of 0 completed (100.00%)\n", buf.String())
}

func TestStartStop(t *testing.T) {
	buf := &syncBuffer{}
	p := NewPrinter(buf, 2)
	p.Start(context.Background(), 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "0 of 2 completed")
	}, time.Second, 5*time.Millisecond)

	p.SetStatus(0, Done)
	p.SetStatus(1, Done)
	p.Stop()
	assert.True(t, strings.HasSuffix(buf.String(), "2 of 2 completed (100.00%)\n"), buf.String())

	// A second Stop must not block
	p.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 1)
	p.SetStatus(0, Done)
	p.Stop()
	assert.Equal(t, "1 of 1 completed (100.00%)\n", buf.String())
}

func TestContextCancel(t *testing.T) {
	buf := &syncBuffer{}
	p := NewPrinter(buf, 1)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, time.Millisecond)
	cancel()

	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("printer goroutine did not exit after cancel")
	}
}
