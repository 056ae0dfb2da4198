package batch

// bufferChunker counts the loading operations left in the current chunk
type bufferChunker struct {
	size      int64
	remaining int64
}

func newBufferChunker(size int64) *bufferChunker {
	return &bufferChunker{size: size, remaining: size}
}

// due reports whether the chunk is full and must be committed
func (c *bufferChunker) due() bool {
	return c.remaining <= 0
}

// take counts one loading operation against the chunk
func (c *bufferChunker) take() {
	c.remaining--
}

func (c *bufferChunker) reset() {
	c.remaining = c.size
}

// pending returns the number of operations counted since the last reset
func (c *bufferChunker) pending() int64 {
	return c.size - c.remaining
}
