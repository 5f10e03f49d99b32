package service

import (
	"fmt"
	"image"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Preprocessor 灰度图降噪 + 自适应阈值，网格线和数字成为前景
type Preprocessor struct {
	blurSize  int
	blockSize int
	offset    float32
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		blurSize:  5,
		blockSize: 11,
		offset:    2,
	}
}

// DecodeFile 以灰度方式读取图片文件
func (p *Preprocessor) DecodeFile(path string) (gocv.Mat, error) {
	gray := gocv.IMRead(path, gocv.IMReadGrayScale)
	if gray.Empty() {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrImageDecode, filepath.Base(path))
	}
	return gray, nil
}

// DecodeBytes 以灰度方式解码内存中的图片
func (p *Preprocessor) DecodeBytes(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, fmt.Errorf("%w: empty input", ErrImageDecode)
	}
	gray, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if gray.Empty() {
		gray.Close()
		return gocv.Mat{}, ErrImageDecode
	}
	return gray, nil
}

// Threshold 返回反相的自适应高斯阈值图，调用方负责 Close
func (p *Preprocessor) Threshold(gray gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: p.blurSize, Y: p.blurSize}, 0, 0, gocv.BorderDefault)

	thresholded := gocv.NewMat()
	gocv.AdaptiveThreshold(blurred, &thresholded, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, p.blockSize, p.offset)
	return thresholded
}
