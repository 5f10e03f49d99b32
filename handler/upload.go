package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/revanthyasa/DigitSudoku/service"
	"github.com/revanthyasa/DigitSudoku/utils"
	"go.uber.org/zap"
)

// GridExtractor 从图片文件提取数独网格
type GridExtractor interface {
	ExtractFile(ctx context.Context, path string) (model.Grid, error)
}

// GridCache 识别结果缓存，按文件 MD5 索引
type GridCache interface {
	GetGrid(ctx context.Context, md5 string) (model.Grid, error)
	SetGrid(ctx context.Context, md5 string, grid model.Grid) error
}

type UploadHandler struct {
	cfg       *config.Config
	extractor GridExtractor
	cache     GridCache
}

// NewUploadHandler cache 可以为 nil，表示不使用缓存
func NewUploadHandler(cfg *config.Config, extractor GridExtractor, cache GridCache) *UploadHandler {
	return &UploadHandler{
		cfg:       cfg,
		extractor: extractor,
		cache:     cache,
	}
}

// Upload 处理数独图片上传并返回识别出的网格
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Warn("no image in upload request", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "No image provided"})
		return
	}

	// 验证文件大小
	if h.cfg.Upload.MaxSize > 0 && file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: fmt.Sprintf("file size exceeds limit (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	filename, err := utils.UploadName(file.Filename)
	if err != nil {
		utils.Logger.Error("failed to generate upload name", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	savePath := filepath.Join(h.cfg.Upload.UploadDir, filename)

	// 保存文件
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	// 所有返回路径都删除临时文件
	if h.cfg.Upload.Cleanup {
		defer func() {
			if err := os.Remove(savePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				utils.Logger.Warn("failed to delete temp file",
					zap.String("file", savePath),
					zap.Error(err))
			} else {
				utils.Logger.Debug("temp file deleted",
					zap.String("file", savePath))
			}
		}()
	}

	// 验证文件类型
	if len(h.cfg.Upload.AllowedTypes) > 0 {
		mtype, err := mimetype.DetectFile(savePath)
		if err != nil {
			utils.Logger.Error("failed to detect mime type", zap.Error(err))
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
			return
		}
		if !h.isAllowedType(mtype) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error: fmt.Sprintf("unsupported file type: %s", mtype.String()),
			})
			return
		}
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.String("original", file.Filename),
		zap.Int64("size", file.Size))

	ctx := c.Request.Context()

	// 检查缓存
	var md5 string
	if h.cache != nil {
		if md5, err = utils.FileMD5(savePath); err != nil {
			utils.Logger.Warn("failed to calculate md5", zap.Error(err))
		} else if cached, err := h.cache.GetGrid(ctx, md5); err != nil {
			utils.Logger.Warn("failed to get cache", zap.Error(err))
		} else if cached != nil {
			utils.Logger.Info("cache hit", zap.String("md5", md5))
			h.respondGrid(c, cached)
			return
		}
	}

	grid, err := h.extractor.ExtractFile(ctx, savePath)
	if err != nil {
		utils.Logger.Error("error processing the image", zap.Error(err))
		c.JSON(statusFor(err), model.ErrorResponse{Error: err.Error()})
		return
	}

	if h.cache != nil && md5 != "" {
		if err := h.cache.SetGrid(ctx, md5, grid); err != nil {
			utils.Logger.Warn("failed to set cache", zap.Error(err))
		}
	}

	h.respondGrid(c, grid)
}

func (h *UploadHandler) respondGrid(c *gin.Context, grid model.Grid) {
	resp, err := model.SerializeGrid(grid)
	if err != nil {
		utils.Logger.Error("extracted grid failed validation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UploadHandler) isAllowedType(mtype *mimetype.MIME) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// statusFor 流水线错误一律 500，排队超时返回 503
func statusFor(err error) int {
	if errors.Is(err, service.ErrQueueFull) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
