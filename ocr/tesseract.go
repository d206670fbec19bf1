package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// tesseractCLI runs the tesseract binary once per page segmentation mode,
// feeding the image as PNG on stdin.
type tesseractCLI struct {
	bin        string
	preprocess bool
}

func newTesseract(opts Options) (*tesseractCLI, error) {
	bin, err := FindTesseract(opts.TesseractPath)
	if err != nil {
		return nil, err
	}
	return &tesseractCLI{bin: bin, preprocess: opts.Preprocess}, nil
}

func (t *tesseractCLI) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	var src image.Image = img
	if t.preprocess {
		src = Preprocess(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	data := buf.Bytes()
	tlang := TesseractLanguage(lang)

	return recognizeBest(ctx, psmModes(src.Bounds()), func(psm int) (string, error) {
		return t.run(ctx, data, tlang, psm)
	})
}

func (t *tesseractCLI) run(ctx context.Context, data []byte, lang string, psm int) (string, error) {
	cmd := exec.CommandContext(ctx, t.bin, "stdin", "stdout",
		"-l", lang, "--oem", "3", "--psm", strconv.Itoa(psm))
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w\n\n%s", ErrNotInstalled, InstallHint())
		}
		return "", fmt.Errorf("tesseract psm %d: %w: %s", psm, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// InstalledLanguages lists the traineddata packs available to the tesseract
// binary at path, or the auto-detected one when path is empty.
func InstalledLanguages(ctx context.Context, path string) ([]string, error) {
	t, err := newTesseract(Options{TesseractPath: path})
	if err != nil {
		return nil, err
	}
	return t.languages(ctx)
}

func (t *tesseractCLI) languages(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, t.bin, "--list-langs").Output()
	if err != nil {
		return nil, fmt.Errorf("list tesseract languages: %w", err)
	}
	return parseLanguageList(string(out)), nil
}

func (t *tesseractCLI) Close() error { return nil }

// parseLanguageList parses `tesseract --list-langs` output, which starts
// with a header line ending in a colon.
func parseLanguageList(out string) []string {
	var langs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}

// FindTesseract resolves the tesseract binary: an explicit path wins, then
// PATH, then the usual Windows install locations.
func FindTesseract(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("tesseract path %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if p, err := exec.LookPath("tesseract"); err == nil {
		return p, nil
	}
	if runtime.GOOS == "windows" {
		for _, p := range windowsTesseractPaths() {
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w\n\n%s", ErrNotInstalled, InstallHint())
}

func windowsTesseractPaths() []string {
	paths := []string{
		`C:\Program Files\Tesseract-OCR\tesseract.exe`,
		`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "AppData", "Local", "Programs", "Tesseract-OCR", "tesseract.exe"))
	}
	return paths
}

// InstallHint returns installation instructions for the current platform.
func InstallHint() string {
	switch runtime.GOOS {
	case "windows":
		return "Install Tesseract from https://github.com/UB-Mannheim/tesseract/wiki, " +
			"then add it to PATH or set tesseract_path in config.json."
	case "linux":
		return "Install Tesseract:\n" +
			"  Ubuntu/Debian: sudo apt-get install tesseract-ocr\n" +
			"  Fedora: sudo dnf install tesseract\n" +
			"  Arch: sudo pacman -S tesseract\n" +
			"Language packs are separate, e.g. tesseract-ocr-ita for Italian."
	case "darwin":
		return "Install Tesseract:\n" +
			"  brew install tesseract\n" +
			"  brew install tesseract-lang  # non-English languages"
	default:
		return "Install Tesseract and make sure it is on PATH."
	}
}
