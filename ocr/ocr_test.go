package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

func TestPSMModes(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		want []int
	}{
		{"wide strip", image.Rect(0, 0, 1000, 100), []int{7, 6, 3}},
		{"square", image.Rect(0, 0, 400, 400), []int{6, 3, 7}},
		{"boundary is single line", image.Rect(0, 0, 1000, 300), []int{7, 6, 3}},
		{"just above boundary", image.Rect(0, 0, 1000, 301), []int{6, 3, 7}},
		{"zero width", image.Rect(0, 0, 0, 10), []int{6, 3, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := psmModes(tt.rect); !slices.Equal(got, tt.want) {
				t.Errorf("psmModes(%v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestRecognizeBest(t *testing.T) {
	modes := []int{7, 6, 3}

	tests := []struct {
		name    string
		results map[int]string
		errs    map[int]error
		want    string
		calls   int
		wantErr bool
	}{
		{
			name:    "preferred mode wins immediately",
			results: map[int]string{7: "short", 6: "much longer text", 3: "x"},
			want:    "short",
			calls:   1,
		},
		{
			name:    "longest fallback",
			results: map[int]string{7: "  ", 6: "abc", 3: "abcdef"},
			want:    "abcdef",
			calls:   3,
		},
		{
			name:    "first longest on tie",
			results: map[int]string{6: "abc", 3: "xyz"},
			want:    "abc",
			calls:   3,
		},
		{
			name:  "nothing found",
			want:  "",
			calls: 3,
		},
		{
			name:    "errors skipped",
			results: map[int]string{3: "found"},
			errs:    map[int]error{7: errors.New("boom"), 6: errors.New("boom")},
			want:    "found",
			calls:   3,
		},
		{
			name:    "all failed",
			errs:    map[int]error{7: errors.New("a"), 6: errors.New("b"), 3: errors.New("c")},
			calls:   3,
			wantErr: true,
		},
		{
			name:    "not installed aborts",
			errs:    map[int]error{7: ErrNotInstalled},
			calls:   1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := recognizeBest(context.Background(), modes, func(psm int) (string, error) {
				calls++
				if err := tt.errs[psm]; err != nil {
					return "", err
				}
				return tt.results[psm], nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("recognizeBest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("recognizeBest() = %q, want %q", got, tt.want)
			}
			if calls != tt.calls {
				t.Errorf("calls = %d, want %d", calls, tt.calls)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ciao\n\n mondo  ", "Ciao mondo"},
		{"|l tuo turno", "Il tuo turno"},
		{"HP ０/100", "HP 0/100"},
		{"\t\n", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTesseractLanguage(t *testing.T) {
	tests := map[string]string{
		"it":    "ita",
		"en":    "eng",
		"zh-CN": "chi_sim",
		"zh-TW": "chi_tra",
		"auto":  "eng",
		"xx":    "eng",
	}
	for in, want := range tests {
		if got := TesseractLanguage(in); got != want {
			t.Errorf("TesseractLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 20, 15))
	for y := 10; y < 15; y++ {
		for x := 10; x < 20; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x < 15 {
				c = color.RGBA{255, 255, 255, 255}
			}
			src.SetRGBA(x, y, c)
		}
	}

	got := Preprocess(src)
	if got.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Fatalf("bounds = %v, want 40x20 at origin", got.Bounds())
	}
	if got.GrayAt(0, 0).Y != 255 || got.GrayAt(39, 19).Y != 0 {
		t.Errorf("upscale lost pixel edges: %d %d", got.GrayAt(0, 0).Y, got.GrayAt(39, 19).Y)
	}
}

func TestPreprocessEmpty(t *testing.T) {
	if got := Preprocess(image.NewRGBA(image.Rectangle{})); !got.Bounds().Empty() {
		t.Errorf("bounds = %v, want empty", got.Bounds())
	}
}

func TestEnhanceContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0], img.Pix[1] = 100, 200 // mean 150

	enhanceContrast(img, 1.2)

	if img.Pix[0] != 90 || img.Pix[1] != 210 {
		t.Errorf("pixels = %v, want [90 210]", img.Pix)
	}
}

func TestParseLanguageList(t *testing.T) {
	out := "List of available languages in \"/usr/share/tesseract-ocr/5/tessdata/\" (3):\neng\nita\nosd\n"
	want := []string{"eng", "ita", "osd"}
	if got := parseLanguageList(out); !slices.Equal(got, want) {
		t.Errorf("parseLanguageList() = %v, want %v", got, want)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("paddle", Options{}); err == nil {
		t.Error("expected error for unknown engine")
	}
	if _, err := New("tesseract", Options{TesseractPath: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing binary")
	}
}

// fakeTesseract writes a shell script that ignores its input and prints out.
func fakeTesseract(t *testing.T, out string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	script := "#!/bin/sh\ncat > /dev/null\nprintf '%s' '" + out + "'\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake tesseract: %v", err)
	}
	return path
}

func TestTesseractCLIRecognize(t *testing.T) {
	bin := fakeTesseract(t, "  |l mio\n nome  ")

	e, err := New("tesseract", Options{TesseractPath: bin, Preprocess: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	img := image.NewRGBA(image.Rect(0, 0, 200, 20))
	got, err := e.Recognize(context.Background(), img, "it")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "Il mio nome" {
		t.Errorf("Recognize() = %q, want %q", got, "Il mio nome")
	}
}

func TestInstalledLanguages(t *testing.T) {
	bin := fakeTesseract(t, "List of available languages (2):\neng\nita\n")

	got, err := InstalledLanguages(context.Background(), bin)
	if err != nil {
		t.Fatalf("InstalledLanguages() error = %v", err)
	}
	if !slices.Equal(got, []string{"eng", "ita"}) {
		t.Errorf("InstalledLanguages() = %v", got)
	}
}

func TestInstallHint(t *testing.T) {
	if !strings.Contains(strings.ToLower(InstallHint()), "tesseract") {
		t.Error("install hint does not mention tesseract")
	}
}
