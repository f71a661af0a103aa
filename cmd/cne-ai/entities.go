// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/entity"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities <text...>",
	Short: "Run the entity ruler over text",
	Long: `Entities loads the ruler patterns (--patterns, a JSON, JSON Lines, or
YAML file) and the optional INI configuration with an [nlp] section
(--nlp-config), then prints the entities found in each argument. This is
the same recognition that fills operator B's entities column.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEntities,
}

type entityResult struct {
	Text     string          `json:"text"`
	Entities []entity.Entity `json:"entities"`
}

func runEntities(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"operators.entities.patterns_path": "patterns",
		"operators.entities.config_path":   "nlp-config",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Operators.Entities.Enabled() {
		return errors.New("no patterns file configured; use --patterns")
	}

	ruler, err := entity.Load(cfg.Operators.Entities)
	if err != nil {
		return err
	}

	results := make([]entityResult, len(args))
	for i, found := range ruler.Pipe(args) {
		if found == nil {
			found = []entity.Entity{}
		}
		results[i] = entityResult{Text: args[i], Entities: found}
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		fmt.Fprintln(out, r.Text)
		if len(r.Entities) == 0 {
			fmt.Fprintln(out, "  (no entities)")
			continue
		}
		for _, e := range r.Entities {
			label := e.Label
			if e.ID != "" {
				label += " [" + e.ID + "]"
			}
			fmt.Fprintf(out, "  %-12s %q at %d-%d\n", label, e.Text, e.Start, e.End)
		}
	}
	fmt.Fprintf(out, "%d patterns, language %s\n", ruler.Len(), strings.ToUpper(ruler.Language()))
	return nil
}

func init() {
	entitiesCmd.Flags().String("patterns", "", "ruler patterns file (.json, .jsonl, .yaml)")
	entitiesCmd.Flags().String("nlp-config", "", "INI file with an [nlp] section")
	entitiesCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(entitiesCmd)
}
