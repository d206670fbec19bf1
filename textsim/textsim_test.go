package textsim

import (
	"testing"

	"github.com/matryer/is"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
		{"caffè", "caffe", 1},
		{"日本語", "日本", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Distance(tt.b, tt.a); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestDistanceTriangle(t *testing.T) {
	is := is.New(t)
	words := []string{"", "a", "ciao", "ciao mondo", "hello world", "hallo welt"}
	for _, a := range words {
		for _, b := range words {
			for _, c := range words {
				is.True(Distance(a, c) <= Distance(a, b)+Distance(b, c))
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	is := is.New(t)
	is.Equal(Normalize("  Hello World \n"), "hello world")
	is.Equal(Normalize("   "), "")
	is.Equal(Normalize("STRASSE"), Normalize("strasse"))
	// e + combining acute composes to é
	is.Equal(Normalize("e\u0301"), Normalize("\u00e9"))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 0},
		{"one empty", "", "ciao", 0},
		{"whitespace only", "   ", "ciao", 0},
		{"equal", "Ciao", "ciao", 1},
		{"padded", "  Ciao  ", "ciao", 1},
		{"one substitution", "abcd", "abce", 0.75},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityRange(t *testing.T) {
	is := is.New(t)
	pairs := [][2]string{
		{"Hello there", "Hello thera"},
		{"a", "abcdefgh"},
		{"Benvenuto!", "benvenuti"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		is.True(s >= 0 && s <= 1)
		is.Equal(s, Similarity(p[1], p[0]))
	}
}
