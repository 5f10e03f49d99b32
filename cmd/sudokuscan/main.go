package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/revanthyasa/DigitSudoku/client"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:          "sudokuscan",
		Short:        "Send sudoku photos to a DigitSudoku server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&server, "server", envOr("SUDOKU_SERVER", "http://localhost:8000"), "server base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	newClient := func() *client.Client { return client.New(server, timeout) }

	var maxDim int
	upload := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a photo and print the recognised grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.PrepareImage(args[0], maxDim)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])) + ".jpg"
			grid, err := newClient().Upload(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			printGrid(cmd.OutOrStdout(), grid)
			return nil
		},
	}
	upload.Flags().IntVar(&maxDim, "max-dim", 1600, "shrink the longer side to this many pixels before upload (0 keeps the original)")

	sample := &cobra.Command{
		Use:   "sample",
		Short: "Print the server's sample grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			grid, err := newClient().Sample(cmd.Context())
			if err != nil {
				return err
			}
			printGrid(cmd.OutOrStdout(), grid)
			return nil
		},
	}

	root.AddCommand(upload, sample)
	root.SetContext(context.Background())
	return root
}

// printGrid 每行九个数字，空格分隔，空格子打印 0
func printGrid(w io.Writer, grid model.Grid) {
	for _, row := range grid {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.Itoa(v)
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
