// Package assistant – chunk.go splits long answers into bounded segments
// for outbound delivery.
package assistant

// Chunk splits text into ordered segments of at most maxSize bytes each.
// Pure prefix split: no word-boundary awareness, segments concatenate back
// to exactly the original text. Empty input yields zero segments.
func Chunk(text string, maxSize int) []string {
	if text == "" || maxSize <= 0 {
		return nil
	}

	chunks := make([]string, 0, (len(text)+maxSize-1)/maxSize)
	for len(text) > maxSize {
		chunks = append(chunks, text[:maxSize])
		text = text[maxSize:]
	}
	return append(chunks, text)
}
