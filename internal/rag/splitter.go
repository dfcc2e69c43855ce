package rag

// splitText slices text into overlapping chunks of at most chunkSize runes,
// each chunk starting chunkSize-chunkOverlap runes after the previous one.
// Splitting is deterministic: the same input always yields the same chunks,
// which keeps chunk IDs ("{contentID}-{chunkIndex}") stable across reindexes.
//
// chunkOverlap must be smaller than chunkSize; config validation guarantees
// this before an Indexer is constructed.
func splitText(text string, chunkSize, chunkOverlap int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - chunkOverlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
