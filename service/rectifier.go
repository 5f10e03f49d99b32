package service

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Quad 有序四角：左上、右上、右下、左下
type Quad [4]gocv.Point2f

// PerspectiveRectifier 将倾斜的网格四边形校正为正方形俯视图
type PerspectiveRectifier struct {
	epsilonRatio float64
}

func NewPerspectiveRectifier() *PerspectiveRectifier {
	return &PerspectiveRectifier{epsilonRatio: 0.02}
}

// Corners 将轮廓近似为多边形，要求恰好 4 个顶点
func (pr *PerspectiveRectifier) Corners(contour gocv.PointVector) (Quad, error) {
	perimeter := gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, pr.epsilonRatio*perimeter, true)
	defer approx.Close()

	if approx.Size() != 4 {
		return Quad{}, fmt.Errorf("%w (found %d vertices)", ErrGridShapeInvalid, approx.Size())
	}
	return OrderCorners(approx.ToPoints()), nil
}

// Warp 按四角透视变换原始灰度图，输出边长为最长边的正方形，调用方负责 Close
func (pr *PerspectiveRectifier) Warp(gray gocv.Mat, q Quad) (gocv.Mat, error) {
	side := SideLength(q)
	size := int(side)
	if size < 9 {
		return gocv.Mat{}, fmt.Errorf("%w (grid side %d px is too small)", ErrGridShapeInvalid, size)
	}

	last := float32(side - 1)
	src := gocv.NewPoint2fVectorFromPoints(q[:])
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: last, Y: 0},
		{X: last, Y: last},
		{X: 0, Y: last},
	})
	defer dst.Close()

	matrix := gocv.GetPerspectiveTransform2f(src, dst)
	defer matrix.Close()

	warped := gocv.NewMat()
	gocv.WarpPerspective(gray, &warped, matrix, image.Point{X: size, Y: size})
	return warped, nil
}

// OrderCorners 按坐标和与差排序四个顶点。
// x+y 最小为左上，最大为右下；y-x 最小为右上，最大为左下。并列时取先出现的点。
func OrderCorners(pts []image.Point) Quad {
	sMin, sMax, dMin, dMax := 0, 0, 0, 0
	for i := 1; i < len(pts); i++ {
		s, d := pts[i].X+pts[i].Y, pts[i].Y-pts[i].X
		if s < pts[sMin].X+pts[sMin].Y {
			sMin = i
		}
		if s > pts[sMax].X+pts[sMax].Y {
			sMax = i
		}
		if d < pts[dMin].Y-pts[dMin].X {
			dMin = i
		}
		if d > pts[dMax].Y-pts[dMax].X {
			dMax = i
		}
	}
	return Quad{toPoint2f(pts[sMin]), toPoint2f(pts[dMin]), toPoint2f(pts[sMax]), toPoint2f(pts[dMax])}
}

// SideLength 四条边中最长的一条
func SideLength(q Quad) float64 {
	side := 0.0
	for i := range q {
		side = math.Max(side, distance(q[i], q[(i+1)%len(q)]))
	}
	return side
}

func distance(a, b gocv.Point2f) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func toPoint2f(p image.Point) gocv.Point2f {
	return gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
}
