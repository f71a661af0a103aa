// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the conversion history of the server",
	Long: `Jobs reads the job history database written by serve and lists the
most recent conversions, newest first.`,
	Args: cobra.NoArgs,
	RunE: runJobs,
}

func runJobs(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{"store.path": "db"}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return errors.New("job history is disabled (store.path is empty)")
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return fmt.Errorf("job history %s: %w", cfg.Store.Path, err)
	}

	store, err := jobs.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	list, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No jobs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tTABLES\tFILE\tERROR")
	for _, j := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			j.ID, j.CreatedAt.Local().Format(time.DateTime), j.Status, j.Tables, j.Filename, j.Error)
	}
	return tw.Flush()
}

func init() {
	jobsCmd.Flags().String("db", "data/cne_ai_jobs.db", "job history database")
	jobsCmd.Flags().Int("limit", 0, "maximum jobs to list (0 = store default)")
	jobsCmd.Flags().Bool("json", false, "output jobs as JSON")

	rootCmd.AddCommand(jobsCmd)
}
