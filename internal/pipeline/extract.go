package pipeline

import (
	"context"
	"io"
	"sync"
)

// SliceCursor hands out the time indices [0, total) in order.
type SliceCursor struct {
	mu    sync.Mutex
	next  int
	total int
}

// NewSliceCursor creates a cursor over total time steps.
func NewSliceCursor(total int) *SliceCursor {
	return &SliceCursor{total: max(total, 0)}
}

// ExtractBatch returns the next batchSize indices, fewer at the end of the
// axis, and io.EOF once none remain.
func (c *SliceCursor) ExtractBatch(ctx context.Context, batchSize int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next >= c.total {
		return nil, io.EOF
	}
	end := min(c.next+max(batchSize, 1), c.total)
	batch := make([]int, 0, end-c.next)
	for t := c.next; t < end; t++ {
		batch = append(batch, t)
	}
	c.next = end
	return batch, nil
}
