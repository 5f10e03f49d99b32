package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/otiai10/gosseract/v2"
	"github.com/revanthyasa/DigitSudoku/config"
)

const (
	digitWhitelist     = "0123456789"
	defaultMaxInflight = 6
)

// DigitReader 单字符数字识别
type DigitReader interface {
	// ReadDigit 识别一张 PNG 编码的格子图，返回原始文本
	ReadDigit(ctx context.Context, cellPNG []byte) (string, error)
}

// recognizeFunc 执行一次完整识别，阻塞直到引擎返回
type recognizeFunc func(cfg *config.OCRConfig, cellPNG []byte) (string, error)

// TesseractReader 基于 gosseract 的 DigitReader，每次识别使用独立的 client。
// 同时运行的识别数受 slots 限制，超时返回后仍在运行的识别也占用槽位。
// 每个请求逐格串行识别，槽位数不小于 extractor.max_concurrent 时只有滞留的识别会占满槽位。
type TesseractReader struct {
	settings  atomic.Pointer[config.OCRConfig]
	slots     chan struct{}
	recognize recognizeFunc
}

// NewTesseractReader 槽位数取 cfg.MaxInflight，之后的 Update 不会改变它
func NewTesseractReader(cfg config.OCRConfig) *TesseractReader {
	return newTesseractReader(cfg, recognizeWithClient)
}

func newTesseractReader(cfg config.OCRConfig, recognize recognizeFunc) *TesseractReader {
	inflight := cfg.MaxInflight
	if inflight <= 0 {
		inflight = defaultMaxInflight
	}
	r := &TesseractReader{
		slots:     make(chan struct{}, inflight),
		recognize: recognize,
	}
	r.Update(cfg)
	return r
}

// Update 替换 OCR 配置，对之后开始的识别生效
func (r *TesseractReader) Update(cfg config.OCRConfig) {
	r.settings.Store(&cfg)
}

// ReadDigit gosseract 本身不支持超时，识别放在单独的 goroutine 中，
// ctx 到期后立即返回 ErrOCRTimeout。goroutine 在识别结束后才释放槽位，
// 槽位用尽时不等待，直接返回 ErrOCRTimeout。
func (r *TesseractReader) ReadDigit(ctx context.Context, cellPNG []byte) (string, error) {
	if ctx.Err() != nil {
		return "", ctxError(ctx)
	}
	select {
	case r.slots <- struct{}{}:
	default:
		return "", fmt.Errorf("%w: %d recognitions still running", ErrOCRTimeout, cap(r.slots))
	}

	settings := r.settings.Load()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() { <-r.slots }()
		text, err := r.recognize(settings, cellPNG)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrOCRFailure, res.err)
		}
		return res.text, nil
	case <-ctx.Done():
		return "", ctxError(ctx)
	}
}

func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrOCRTimeout
	}
	return ctx.Err()
}

func recognizeWithClient(cfg *config.OCRConfig, cellPNG []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	return recognize(client, cfg, cellPNG)
}

func recognize(c *gosseract.Client, cfg *config.OCRConfig, cellPNG []byte) (string, error) {
	if cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if cfg.Language != "" {
		if err := c.SetLanguage(cfg.Language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetWhitelist(digitWhitelist); err != nil {
		return "", fmt.Errorf("set whitelist: %w", err)
	}
	if err := c.SetImageFromBytes(cellPNG); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return c.Text()
}
