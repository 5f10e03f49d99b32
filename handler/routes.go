package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册数独 API
func RegisterRoutes(r gin.IRouter, upload *UploadHandler) {
	api := r.Group("/api")
	{
		api.POST("/upload/", upload.Upload)
		api.GET("/sudoku/", Sample)
	}
}
