package ocr

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	upscaleFactor  = 4
	contrastFactor = 1.2
)

// Preprocess prepares game text for tesseract: a nearest-neighbour upscale
// keeps pixel-font edges sharp, then the image is converted to grayscale and
// its contrast is raised slightly around the mean luminance.
func Preprocess(img image.Image) *image.Gray {
	b := img.Bounds()
	if b.Empty() {
		return image.NewGray(image.Rectangle{})
	}

	scaled := resize.Resize(uint(b.Dx()*upscaleFactor), uint(b.Dy()*upscaleFactor), img, resize.NearestNeighbor)

	sb := scaled.Bounds()
	gray := image.NewGray(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(gray, gray.Bounds(), scaled, sb.Min, draw.Src)

	enhanceContrast(gray, contrastFactor)
	return gray
}

// enhanceContrast scales each pixel's distance from the mean by factor.
func enhanceContrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}

	var sum uint64
	for _, v := range img.Pix {
		sum += uint64(v)
	}
	mean := float64(sum)/float64(len(img.Pix)) + 0.5
	mean = float64(int(mean))

	var lut [256]uint8
	for i := range lut {
		v := mean + factor*(float64(i)-mean)
		lut[i] = clamp8(v)
	}
	for i, v := range img.Pix {
		img.Pix[i] = lut[v]
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
