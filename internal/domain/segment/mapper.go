package segment

// ChunkParagraphs splits text into paragraphs and chunks each one on its own.
// ParagraphIndices[i] is the index of the paragraph that produced Chunks[i],
// so the slice is non-decreasing and as long as Chunks.
func (c *Chunker) ChunkParagraphs(text string) Result {
	paragraphs := SplitParagraphs(text)
	result := Result{
		Chunks:           make([]string, 0, len(paragraphs)),
		ParagraphIndices: make([]int, 0, len(paragraphs)),
	}
	for i, paragraph := range paragraphs {
		chunks, truncated := c.chunk(paragraph)
		for _, chunk := range chunks {
			result.Chunks = append(result.Chunks, chunk)
			result.ParagraphIndices = append(result.ParagraphIndices, i)
		}
		result.Truncated = result.Truncated || truncated
	}
	return result
}

// MapChunks is a convenience wrapper around Chunker.ChunkParagraphs.
func MapChunks(text string, maxSize int, counter Counter) (Result, error) {
	c, err := NewChunker(counter, maxSize)
	if err != nil {
		return Result{}, err
	}
	return c.ChunkParagraphs(text), nil
}
