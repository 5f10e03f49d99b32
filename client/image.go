package client

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PrepareImage 读取照片，按 EXIF 方向摆正，长边缩到 maxDim 以内后编码为 JPEG。
// maxDim <= 0 时不缩放。
func PrepareImage(path string, maxDim int) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return encodeFitted(img, maxDim)
}

func encodeFitted(img image.Image, maxDim int) ([]byte, error) {
	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
