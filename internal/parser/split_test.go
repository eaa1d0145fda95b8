package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// reconstruct concatenates chunks with the overlap removed from every chunk
// after the first.
func reconstruct(contents []string, overlap int) string {
	var sb strings.Builder
	for i, c := range contents {
		if i == 0 {
			sb.WriteString(c)
			continue
		}
		runes := []rune(c)
		trim := overlap
		if trim > len(runes) {
			trim = len(runes)
		}
		sb.WriteString(string(runes[trim:]))
	}
	return sb.String()
}

func TestSplit_Reconstruction(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"even fit", strings.Repeat("abcdefghij", 10), 20, 5},
		{"uneven tail", "The quick brown fox jumps over the lazy dog, again and again.", 17, 4},
		{"zero overlap", "aaaaabbbbbcccccdddddeee", 5, 0},
		{"large overlap", strings.Repeat("x y z ", 40), 30, 25},
		{"multibyte runes", strings.Repeat("héllo wörld ", 12), 15, 3},
		{"single chunk", "short text", 100, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Split(tc.text, "doc", tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			contents := make([]string, len(chunks))
			for i, c := range chunks {
				contents[i] = c.Content
			}
			require.Equal(t, tc.text, reconstruct(contents, tc.overlap))
		})
	}
}

func TestSplit_AdjacentChunksShareOverlap(t *testing.T) {
	text := strings.Repeat("0123456789", 10)
	const size, overlap = 20, 5

	chunks, err := Split(text, "doc", size, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 0; i < len(chunks)-1; i++ {
		prev := []rune(chunks[i].Content)
		next := []rune(chunks[i+1].Content)
		if len(prev) < size {
			// prev already reached the end of the text; next is contained in it
			continue
		}
		shared := overlap
		if len(next) < shared {
			shared = len(next)
		}
		require.Equal(t, string(prev[len(prev)-overlap:len(prev)-overlap+shared]), string(next[:shared]),
			"chunks %d and %d do not share the overlap window", i, i+1)
	}
}

func TestSplit_WindowSizes(t *testing.T) {
	text := strings.Repeat("a", 47)
	chunks, err := Split(text, "doc", 20, 5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	require.Len(t, []rune(chunks[0].Content), 20)
	for _, c := range chunks {
		require.NotEmpty(t, c.Content)
		require.LessOrEqual(t, len([]rune(c.Content)), 20)
	}
}

func TestSplit_SequenceIdentity(t *testing.T) {
	chunks, err := Split(strings.Repeat("word ", 30), "report.pdf", 25, 5)
	require.NoError(t, err)
	for i, c := range chunks {
		require.Equal(t, i+1, c.ChunkID)
		require.Equal(t, "report.pdf", c.Source)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split("", "doc", 20, 5)
	require.NoError(t, err)
	require.Nil(t, chunks)
}

func TestSplit_InvalidParameters(t *testing.T) {
	_, err := Split("text", "doc", 0, 0)
	require.Error(t, err)

	_, err = Split("text", "doc", 10, 10)
	require.Error(t, err)

	_, err = Split("text", "doc", 10, -1)
	require.Error(t, err)
}

func TestSplit_SkyScenario(t *testing.T) {
	text := "The sky is blue. Grass is green."
	chunks, err := Split(text, "doc", 20, 5)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 3)

	found := false
	for _, c := range chunks {
		if strings.Contains(c.Content, "sky is blue") {
			found = true
		}
	}
	require.True(t, found, "no chunk contains the sentence about the sky")
}
