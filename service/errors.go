package service

import "errors"

var (
	// ErrImageDecode 上传文件无法解码为图像
	ErrImageDecode = errors.New("unable to decode image")
	// ErrNoGridDetected 阈值图中没有任何外轮廓
	ErrNoGridDetected = errors.New("no contours found in the image")
	// ErrGridShapeInvalid 最大轮廓不是四边形
	ErrGridShapeInvalid = errors.New("contour is not a quadrilateral — ensure a single, clear grid is visible")
	// ErrOCRTimeout 单个格子识别超时，按空格处理
	ErrOCRTimeout = errors.New("ocr timed out")
	// ErrOCRFailure 单个格子识别出错，按空格处理
	ErrOCRFailure = errors.New("ocr failed")
	// ErrQueueFull 等待处理槽位超时
	ErrQueueFull = errors.New("extraction queue is full, try again later")
)
