package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/types"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load schemas or examples from JSON files",
}

var importSchemasCmd = &cobra.Command{
	Use:   "schemas <file.json>",
	Short: "Import approved device schemas",
	Long: `Import a JSON array of schemas:

  [{"kind": "twitter", "kind_type": "primary", "domain": "social-network",
    "triggers": {"source": {"args": ["text"], "schema": ["String"], "required": [false]}},
    "queries": {}, "actions": {}}]`,
	Args: cobra.ExactArgs(1),
	RunE: runImportSchemas,
}

var importExamplesCmd = &cobra.Command{
	Use:   "examples <file.json>",
	Short: "Import utterance examples",
	Long: `Import a JSON array of examples:

  [{"utterance": "post QUOTED_STRING_0 on twitter",
    "target_code": "now => @twitter.sink(status=QUOTED_STRING_0)"}]`,
	Args: cobra.ExactArgs(1),
	RunE: runImportExamples,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importSchemasCmd, importExamplesCmd)
}

type schemaFile struct {
	types.Schema
	Triggers map[string]*types.ChannelMeta `json:"triggers"`
	Queries  map[string]*types.ChannelMeta `json:"queries"`
	Actions  map[string]*types.ChannelMeta `json:"actions"`
}

func (f *schemaFile) fullMeta() *types.FullMeta {
	meta := types.NewFullMeta(f.Kind)
	for ck, src := range map[types.ChannelKind]map[string]*types.ChannelMeta{
		types.ChannelTriggers: f.Triggers,
		types.ChannelQueries:  f.Queries,
		types.ChannelActions:  f.Actions,
	} {
		dst := meta.Channels(ck)
		for name, ch := range src {
			if ch == nil {
				continue
			}
			ch.Kind, ch.Name = f.Kind, name
			dst[name] = ch
		}
	}
	return meta
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func runImportSchemas(cmd *cobra.Command, args []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}
	var files []schemaFile
	if err := readJSON(args[0], &files); err != nil {
		return err
	}

	database, queries, err := openQueries()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	store := db.NewSchemaStore(queries)
	for i := range files {
		f := &files[i]
		if f.Kind == "" {
			return fmt.Errorf("schema %d: kind required", i)
		}
		if err := store.AddSchema(ctx, f.Schema, f.fullMeta()); err != nil {
			return err
		}
	}
	log.Info("schemas imported", "count", len(files))
	return nil
}

func runImportExamples(cmd *cobra.Command, args []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}
	var examples []db.Example
	if err := readJSON(args[0], &examples); err != nil {
		return err
	}

	database, queries, err := openQueries()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	store := db.NewExampleStore(queries)
	for i, ex := range examples {
		if ex.Utterance == "" || ex.TargetCode == "" {
			return fmt.Errorf("example %d: utterance and target_code required", i)
		}
		if err := store.AddExample(ctx, ex.Utterance, ex.TargetCode); err != nil {
			return err
		}
	}
	log.Info("examples imported", "count", len(examples))
	return nil
}
