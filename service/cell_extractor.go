package service

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/revanthyasa/DigitSudoku/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// CellExtractor 把校正后的网格切成 81 格并逐格识别数字
type CellExtractor struct {
	cellSize int
	reader   DigitReader
}

func NewCellExtractor(cellSize int, reader DigitReader) *CellExtractor {
	if cellSize <= 0 {
		cellSize = 50
	}
	return &CellExtractor{cellSize: cellSize, reader: reader}
}

// CellRect 第 row 行 col 列格子的区域。side/9 取整，右侧和底部的余数像素不属于任何格子。
func CellRect(side, row, col int) image.Rectangle {
	cell := side / model.GridSize
	return image.Rect(col*cell, row*cell, (col+1)*cell, (row+1)*cell)
}

// Extract 逐格识别。单格 OCR 超时或出错时该格记为 0，只有请求被取消才会中断。
func (ce *CellExtractor) Extract(ctx context.Context, warped gocv.Mat, ocr config.OCRConfig) (model.Grid, error) {
	side := warped.Rows()
	grid := model.NewGrid()
	failed := 0

	for row := 0; row < model.GridSize; row++ {
		for col := 0; col < model.GridSize; col++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			text, err := ce.readCell(ctx, warped, CellRect(side, row, col), ocr)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				failed++
				utils.Logger.Debug("cell recognition failed, treating as empty",
					zap.Int("row", row),
					zap.Int("col", col),
					zap.Bool("timeout", errors.Is(err, ErrOCRTimeout)),
					zap.Error(err))
				continue
			}
			grid[row][col] = ParseDigit(text, ocr.LastDigitWins)
		}
	}

	if failed > 0 {
		utils.Logger.Warn("some cells could not be recognized", zap.Int("failed_cells", failed))
	}
	return grid, nil
}

func (ce *CellExtractor) readCell(ctx context.Context, warped gocv.Mat, rect image.Rectangle, ocr config.OCRConfig) (string, error) {
	region := warped.Region(rect)
	defer region.Close()

	prepared := ce.PrepareCell(region)
	defer prepared.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, prepared)
	if err != nil {
		return "", errors.Join(ErrOCRFailure, err)
	}
	data := buf.GetBytes()
	buf.Close()

	var (
		cellCtx context.Context
		cancel  context.CancelFunc
	)
	if ocr.Timeout > 0 {
		cellCtx, cancel = context.WithTimeout(ctx, ocr.Timeout)
	} else {
		cellCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	return ce.reader.ReadDigit(cellCtx, data)
}

// PrepareCell 缩放、降噪、Otsu 二值化并膨胀一次，调用方负责 Close
func (ce *CellExtractor) PrepareCell(cell gocv.Mat) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(cell, &resized, image.Point{X: ce.cellSize, Y: ce.cellSize}, 0, 0, gocv.InterpolationLinear)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(resized, &blurred, image.Point{X: 3, Y: 3}, 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, 128, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	dilated := gocv.NewMat()
	gocv.Dilate(binary, &dilated, kernel)
	return dilated
}

// ParseDigit 把 OCR 文本转换为格子数字。
// 去掉空白后必须非空且全是数字；lastDigitWins 时取最后一个字符，否则只接受单个数字。
func ParseDigit(text string, lastDigitWins bool) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0
		}
	}
	if !lastDigitWins && len(text) != 1 {
		return 0
	}
	return int(text[len(text)-1] - '0')
}
