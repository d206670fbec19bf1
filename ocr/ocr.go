// Package ocr extracts text from captured screen regions.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrNotInstalled is returned when the OCR backend is missing on this system.
var ErrNotInstalled = errors.New("tesseract not installed")

// Engine recognizes text in images. An Engine is owned by a single goroutine;
// create one per worker and Close it when the worker exits.
type Engine interface {
	// Recognize returns the cleaned text found in img. lang is an application
	// language code such as "it" or "zh-CN".
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
	Close() error
}

// Options configures an Engine.
type Options struct {
	TesseractPath string // empty auto-detects
	Preprocess    bool   // upscale and enhance before recognition
}

// New returns the Engine named kind: "tesseract" runs the tesseract binary,
// "gosseract" links libtesseract and needs the gosseract build tag.
func New(kind string, opts Options) (Engine, error) {
	switch kind {
	case "", "tesseract":
		t, err := newTesseract(opts)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "gosseract":
		return newGosseract(opts)
	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", kind)
	}
}

// Page segmentation modes understood by tesseract.
const (
	psmAuto        = 3
	psmSingleBlock = 6
	psmSingleLine  = 7
)

// psmModes orders page segmentation modes by how well they suit an image of
// the given size. Wide strips are most likely a single line of dialogue.
func psmModes(b image.Rectangle) []int {
	aspect := 1.0
	if b.Dx() > 0 {
		aspect = float64(b.Dy()) / float64(b.Dx())
	}
	if aspect > 0.3 {
		return []int{psmSingleBlock, psmAuto, psmSingleLine}
	}
	return []int{psmSingleLine, psmSingleBlock, psmAuto}
}

// recognizeBest runs fn for each mode. Text from the preferred mode is
// accepted immediately; otherwise the longest text from the fallbacks wins.
// Errors from individual modes are skipped unless every mode fails.
func recognizeBest(ctx context.Context, modes []int, fn func(psm int) (string, error)) (string, error) {
	var best string
	var lastErr error
	for i, psm := range modes {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := fn(psm)
		if err != nil {
			if errors.Is(err, ErrNotInstalled) {
				return "", err
			}
			lastErr = err
			continue
		}
		text = CleanText(text)
		if text == "" {
			continue
		}
		if i == 0 {
			return text, nil
		}
		if len([]rune(text)) > len([]rune(best)) {
			best = text
		}
	}
	if best == "" && lastErr != nil {
		return "", lastErr
	}
	return best, nil
}

// CleanText collapses whitespace and fixes characters tesseract commonly
// confuses in game fonts.
func CleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer(
		"|", "I",
		"０", "0",
	).Replace(s)
}

var tesseractLanguages = map[string]string{
	"en":    "eng",
	"it":    "ita",
	"es":    "spa",
	"fr":    "fra",
	"de":    "deu",
	"pt":    "por",
	"ja":    "jpn",
	"ko":    "kor",
	"zh-CN": "chi_sim",
	"zh-TW": "chi_tra",
	"ru":    "rus",
	"ar":    "ara",
	"hi":    "hin",
	"nl":    "nld",
	"pl":    "pol",
	"tr":    "tur",
	"vi":    "vie",
	"th":    "tha",
}

// TesseractLanguage maps an application language code to tesseract's
// traineddata name, defaulting to English.
func TesseractLanguage(code string) string {
	if l, ok := tesseractLanguages[code]; ok {
		return l
	}
	return "eng"
}
