package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/revanthyasa/DigitSudoku/utils"
	"go.uber.org/zap"
)

// Sample 返回固定的示例数独
func Sample(c *gin.Context) {
	resp, err := model.SerializeGrid(model.SampleGrid())
	if err != nil {
		var fe model.FieldErrors
		if errors.As(err, &fe) {
			c.JSON(http.StatusBadRequest, fe)
			return
		}
		utils.Logger.Error("failed to serialize sample grid", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
