//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// libTesseract recognizes text through libtesseract. The client is not safe
// for concurrent use, which matches the one-engine-per-worker ownership.
type libTesseract struct {
	client     *gosseract.Client
	preprocess bool
}

func newGosseract(opts Options) (Engine, error) {
	return &libTesseract{client: gosseract.NewClient(), preprocess: opts.Preprocess}, nil
}

var gosseractModes = map[int]gosseract.PageSegMode{
	psmAuto:        gosseract.PSM_AUTO,
	psmSingleBlock: gosseract.PSM_SINGLE_BLOCK,
	psmSingleLine:  gosseract.PSM_SINGLE_LINE,
}

func (t *libTesseract) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	var src image.Image = img
	if t.preprocess {
		src = Preprocess(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	if err := t.client.SetLanguage(TesseractLanguage(lang)); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	return recognizeBest(ctx, psmModes(src.Bounds()), func(psm int) (string, error) {
		if err := t.client.SetPageSegMode(gosseractModes[psm]); err != nil {
			return "", fmt.Errorf("set psm %d: %w", psm, err)
		}
		return t.client.Text()
	})
}

func (t *libTesseract) Close() error {
	return t.client.Close()
}
