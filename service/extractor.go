package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/revanthyasa/DigitSudoku/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Extractor 负责从数独照片中提取 9x9 数字网格
type Extractor struct {
	semaphore    chan struct{}
	queueTimeout time.Duration
	ocr          atomic.Pointer[config.OCRConfig]
	reader       DigitReader
	preprocessor *Preprocessor
	locator      *ContourLocator
	rectifier    *PerspectiveRectifier
	cells        *CellExtractor
}

func NewExtractor(cfg *config.Config, reader DigitReader) *Extractor {
	maxConcurrent := cfg.Extractor.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	e := &Extractor{
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: cfg.Extractor.QueueTimeout,
		reader:       reader,
		preprocessor: NewPreprocessor(),
		locator:      NewContourLocator(),
		rectifier:    NewPerspectiveRectifier(),
		cells:        NewCellExtractor(cfg.Extractor.CellSize, reader),
	}
	e.ocr.Store(&cfg.OCR)
	return e
}

// Reload 热更新 OCR 配置
func (e *Extractor) Reload(cfg config.OCRConfig) {
	e.ocr.Store(&cfg)
	if u, ok := e.reader.(interface{ Update(config.OCRConfig) }); ok {
		u.Update(cfg)
	}
	utils.Logger.Info("ocr config reloaded",
		zap.String("language", cfg.Language),
		zap.Duration("timeout", cfg.Timeout),
		zap.Bool("last_digit_wins", cfg.LastDigitWins))
}

// ExtractFile 读取图片文件并提取网格
func (e *Extractor) ExtractFile(ctx context.Context, path string) (model.Grid, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	utils.Logger.Info("preprocessing image")
	gray, err := e.preprocessor.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	return e.Extract(ctx, gray)
}

// ExtractBytes 解码内存中的图片并提取网格
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) (model.Grid, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	utils.Logger.Info("preprocessing image")
	gray, err := e.preprocessor.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	return e.Extract(ctx, gray)
}

// Extract 对灰度图依次执行阈值、轮廓、透视校正和逐格识别
func (e *Extractor) Extract(ctx context.Context, gray gocv.Mat) (model.Grid, error) {
	startTime := time.Now()

	thresholded := e.preprocessor.Threshold(gray)
	defer thresholded.Close()
	utils.Logger.Info("image preprocessing completed",
		zap.Int("width", gray.Cols()),
		zap.Int("height", gray.Rows()))

	contour, err := e.locator.Largest(thresholded)
	if err != nil {
		return nil, err
	}
	defer contour.Close()
	utils.Logger.Info("largest contour found", zap.Int("points", contour.Size()))

	corners, err := e.rectifier.Corners(contour)
	if err != nil {
		return nil, err
	}
	warped, err := e.rectifier.Warp(gray, corners)
	if err != nil {
		return nil, err
	}
	defer warped.Close()
	utils.Logger.Info("sudoku grid extracted", zap.Int("side", warped.Rows()))

	ocr := e.ocr.Load()
	grid, err := e.cells.Extract(ctx, warped, *ocr)
	if err != nil {
		return nil, fmt.Errorf("extract digits: %w", err)
	}

	utils.Logger.Info("digits extracted",
		zap.Duration("duration", time.Since(startTime)))
	return grid, nil
}

func (e *Extractor) acquire(ctx context.Context) (func(), error) {
	waitCtx := ctx
	if e.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.queueTimeout)
		defer cancel()
	}

	select {
	case e.semaphore <- struct{}{}:
		return func() { <-e.semaphore }, nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrQueueFull
	}
}
