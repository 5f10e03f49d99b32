package service

import (
	"gocv.io/x/gocv"
)

// ContourLocator 在阈值图中查找面积最大的外轮廓
type ContourLocator struct{}

func NewContourLocator() *ContourLocator {
	return &ContourLocator{}
}

// Largest 返回面积最大的外轮廓，调用方负责 Close
func (cl *ContourLocator) Largest(thresholded gocv.Mat) (gocv.PointVector, error) {
	contours := gocv.FindContours(thresholded, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return gocv.PointVector{}, ErrNoGridDetected
	}

	maxArea := -1.0
	maxIndex := 0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			maxIndex = i
		}
	}

	return gocv.NewPointVectorFromPoints(contours.At(maxIndex).ToPoints()), nil
}
