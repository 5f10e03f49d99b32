package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
)

// UploadName 为上传文件生成唯一文件名，保留原扩展名
func UploadName(original string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generate upload id: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return id.String() + ext, nil
}
