package parser

import (
	"fmt"

	"pdfchat/internal/models"
)

// Split walks text producing consecutive windows of chunkSize runes, advancing
// by chunkSize-overlap each step until the start passes the end of the text.
// The final shorter window is kept, so no content is dropped and each window
// shares its first overlap runes with its predecessor.
//
// Windows are exact: no whitespace trimming, no boundary snapping. Trimming
// the first overlap runes (or the whole chunk when shorter than that) of every
// chunk after the first and concatenating reconstructs the input.
func Split(text, source string, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []models.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Content: string(runes[start:end]),
			ChunkID: len(chunks) + 1,
			Source:  source,
		})
	}
	return chunks, nil
}
