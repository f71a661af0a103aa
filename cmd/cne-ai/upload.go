// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/client"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <docx>",
	Short: "Convert a DOCX document on a running server",
	Long: `Upload posts a DOCX document to a cne-ai server started with serve and
saves the returned ZIP archive. Requests rejected with 429 are retried with
backoff.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server")
	out, _ := cmd.Flags().GetString("output")
	retries, _ := cmd.Flags().GetInt("retries")

	res, err := client.Upload(context.Background(), serverURL, args[0], out, client.WithMaxRetries(retries))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "archive saved: %s (%d bytes, job %s)\n", res.Path, res.Size, res.JobID)
	return nil
}

func init() {
	uploadCmd.Flags().String("server", "http://localhost:5000", "server base URL")
	uploadCmd.Flags().String("output", "operadores_csv.zip", "where to save the archive")
	uploadCmd.Flags().Int("retries", 5, "retries when the server is busy")

	rootCmd.AddCommand(uploadCmd)
}
