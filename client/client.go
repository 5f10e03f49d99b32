package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/revanthyasa/DigitSudoku/model"
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client DigitSudoku HTTP 客户端
type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{http: rc}
}

// Upload 上传图片并返回识别出的网格
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (model.Grid, error) {
	var res model.GridResponse
	var apiErr model.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(data)).
		SetResult(&res).
		SetError(&apiErr).
		Post("/api/upload/")
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	return res.Grid, nil
}

// Sample 获取固定的示例网格
func (c *Client) Sample(ctx context.Context) (model.Grid, error) {
	var res model.GridResponse
	var apiErr model.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&res).
		SetError(&apiErr).
		Get("/api/sudoku/")
	if err != nil {
		return nil, fmt.Errorf("fetch sample: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	return res.Grid, nil
}
