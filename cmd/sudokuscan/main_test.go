package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/revanthyasa/DigitSudoku/model"
)

func TestPrintGrid(t *testing.T) {
	var buf bytes.Buffer
	printGrid(&buf, model.SampleGrid())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0] != "5 3 0 0 7 0 0 0 0" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[8] != "0 0 0 0 8 0 0 7 9" {
		t.Errorf("last line = %q", lines[8])
	}
}

func TestSampleCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/sudoku/", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.GridResponse{Grid: model.SampleGrid()})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"sample", "--server", srv.URL})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "5 3 0 0 7 0 0 0 0\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUploadCommandNeedsFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"upload"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected argument error")
	}
}
