//go:build !gosseract

package ocr

import "errors"

func newGosseract(Options) (Engine, error) {
	return nil, errors.New("gosseract engine not built in: rebuild with -tags gosseract")
}
