package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
	"gocv.io/x/gocv"
)

const (
	canvasSize = 700
	gridOrigin = 125
	gridSide   = 450
)

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func whiteCanvas(size int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), size, size, gocv.MatTypeCV8U)
}

// drawGridLines 画 9x9 网格：粗外框，细内线
func drawGridLines(img *gocv.Mat, origin, side int) {
	cell := side / model.GridSize
	gocv.Rectangle(img, image.Rect(origin, origin, origin+side, origin+side), black, 6)
	for i := 1; i < model.GridSize; i++ {
		p := origin + i*cell
		gocv.Line(img, image.Pt(p, origin), image.Pt(p, origin+side), black, 2)
		gocv.Line(img, image.Pt(origin, p), image.Pt(origin+side, p), black, 2)
	}
}

// markedGrid 在 marks 非 0 的格子中心画实心方块
func markedGrid(marks model.Grid) gocv.Mat {
	img := whiteCanvas(canvasSize)
	drawGridLines(&img, gridOrigin, gridSide)
	cell := gridSide / model.GridSize
	margin := 12
	for r, row := range marks {
		for c, v := range row {
			if v == 0 {
				continue
			}
			x, y := gridOrigin+c*cell, gridOrigin+r*cell
			gocv.Rectangle(&img, image.Rect(x+margin, y+margin, x+cell-margin, y+cell-margin), black, -1)
		}
	}
	return img
}

// digitGrid 在格子中写入数字，供真实 Tesseract 测试使用
func digitGrid(digits model.Grid) gocv.Mat {
	img := whiteCanvas(canvasSize)
	drawGridLines(&img, gridOrigin, gridSide)
	cell := gridSide / model.GridSize
	for r, row := range digits {
		for c, v := range row {
			if v == 0 {
				continue
			}
			x, y := gridOrigin+c*cell, gridOrigin+r*cell
			gocv.PutText(&img, strconv.Itoa(v), image.Pt(x+14, y+cell-12), gocv.FontHersheySimplex, 1.1, black, 3)
		}
	}
	return img
}

func rotate(src gocv.Mat, angle float64) gocv.Mat {
	center := image.Pt(src.Cols()/2, src.Rows()/2)
	m := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, m, image.Pt(src.Cols(), src.Rows()), gocv.InterpolationLinear, gocv.BorderConstant, white)
	return dst
}

func polygon(img *gocv.Mat, n int, radius float64) {
	pts := make([]image.Point, n)
	for i := range pts {
		a := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		pts[i] = image.Pt(canvasSize/2+int(radius*math.Cos(a)), canvasSize/2+int(radius*math.Sin(a)))
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(img, pv, black)
}

func encodePNG(t *testing.T, img gocv.Mat) []byte {
	t.Helper()
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		t.Fatalf("encode png: %v", err)
	}
	defer buf.Close()
	return buf.GetBytes()
}

// inkReader 不做字符识别，格子中心有墨迹时返回 "1"
type inkReader struct{}

func (inkReader) ReadDigit(_ context.Context, cellPNG []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(cellPNG))
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	dark := func(x, y int) bool {
		g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
		return g.Y < 128
	}

	total, totalDark := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total++
			if dark(x, y) {
				totalDark++
			}
		}
	}
	// Otsu 对纯色格子会得到全黑或全白，都视为空
	if float64(totalDark)/float64(total) > 0.9 {
		return "", nil
	}

	center, centerDark := 0, 0
	for y := b.Min.Y + 18; y < b.Min.Y+32; y++ {
		for x := b.Min.X + 18; x < b.Min.X+32; x++ {
			center++
			if dark(x, y) {
				centerDark++
			}
		}
	}
	if float64(centerDark)/float64(center) > 0.5 {
		return "1", nil
	}
	return "", nil
}

// fixedReader 每格返回同样的文本或错误
type fixedReader struct {
	text string
	err  error
}

func (f fixedReader) ReadDigit(context.Context, []byte) (string, error) {
	return f.text, f.err
}

// blockingReader 一直阻塞到 ctx 结束
type blockingReader struct{}

func (blockingReader) ReadDigit(ctx context.Context, _ []byte) (string, error) {
	<-ctx.Done()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ErrOCRTimeout
	}
	return "", ctx.Err()
}

// updatableReader 记录最近一次 Update
type updatableReader struct {
	fixedReader
	mu   sync.Mutex
	last config.OCRConfig
}

func (u *updatableReader) Update(cfg config.OCRConfig) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = cfg
}

func testConfig() *config.Config {
	return &config.Config{
		Extractor: config.ExtractorConfig{
			MaxConcurrent: 2,
			QueueTimeout:  time.Second,
			CellSize:      50,
		},
		OCR: config.OCRConfig{
			Language:      "eng",
			Timeout:       2 * time.Second,
			LastDigitWins: true,
		},
	}
}

func testMarks() model.Grid {
	marks := model.NewGrid()
	for _, rc := range [][2]int{{0, 0}, {0, 8}, {4, 4}, {2, 6}, {7, 1}, {8, 8}, {5, 3}} {
		marks[rc[0]][rc[1]] = 1
	}
	return marks
}
