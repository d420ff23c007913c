package assistant

import (
	"strings"
	"testing"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxSize  int
		wantLen  int
		wantEach []string
	}{
		{"empty yields zero segments", "", 10, 0, nil},
		{"shorter than max", "hello", 10, 1, []string{"hello"}},
		{"exactly max", "0123456789", 10, 1, []string{"0123456789"}},
		{"one over max", "0123456789a", 10, 2, []string{"0123456789", "a"}},
		{"exact multiple", "aabbcc", 2, 3, []string{"aa", "bb", "cc"}},
		{"max of one", "abc", 1, 3, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.maxSize)
			if len(got) != tt.wantLen {
				t.Fatalf("Chunk(%q, %d) = %d segments, want %d", tt.text, tt.maxSize, len(got), tt.wantLen)
			}
			for i, seg := range tt.wantEach {
				if got[i] != seg {
					t.Errorf("segment %d = %q, want %q", i, got[i], seg)
				}
			}
		})
	}
}

func TestChunkLossless(t *testing.T) {
	const maxSize = 7

	// Every length from empty to well past several windows.
	for n := 0; n <= maxSize*5+3; n++ {
		text := strings.Repeat("x", n)
		if n > 0 {
			// Make content position-sensitive so reordering would show.
			text = text[:n-1] + "y"
		}

		chunks := Chunk(text, maxSize)

		if rejoined := strings.Join(chunks, ""); rejoined != text {
			t.Fatalf("len %d: concatenation mismatch", n)
		}

		wantCount := (n + maxSize - 1) / maxSize
		if len(chunks) != wantCount {
			t.Fatalf("len %d: %d segments, want %d", n, len(chunks), wantCount)
		}

		for i, c := range chunks {
			if len(c) > maxSize {
				t.Fatalf("len %d: segment %d exceeds max (%d bytes)", n, i, len(c))
			}
		}
	}
}
