package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/core/jsonl"
	"github.com/solatis/rulesynth/internal/synth"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random rules from approved schemas",
	Long: `Generate writes random rules as JSON lines. With --out - rules go to stdout,
with --out <file> to that file, and by default they are appended to a daily
file under <data_dir>/rules.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int("count", 100, "number of rules to generate")
	generateCmd.Flags().String("policy", synth.PolicyUniform, "schema sampling policy (uniform, uniform-fixed-kinds, test, weighted-domain, only-<kind>)")
	generateCmd.Flags().Uint64("seed", 0, "random seed (0 picks a random seed)")
	generateCmd.Flags().String("out", "", "output file, - for stdout")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	gcfg := cfg.Generator
	if cmd.Flags().Changed("count") {
		gcfg.Count, _ = cmd.Flags().GetInt("count")
	}
	if cmd.Flags().Changed("policy") {
		gcfg.Policy, _ = cmd.Flags().GetString("policy")
	}
	if cmd.Flags().Changed("seed") {
		gcfg.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	out, _ := cmd.Flags().GetString("out")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, queries, err := openQueries()
	if err != nil {
		return err
	}
	defer database.Close()

	store := db.NewSchemaStore(queries)
	schemas, err := store.AllSchemas(ctx)
	if err != nil {
		return err
	}

	opts := synth.Options{
		Policy:      gcfg.Policy,
		MaxAttempts: gcfg.MaxAttempts,
		Logger:      log,
	}
	if gcfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(gcfg.Seed, gcfg.Seed))
	}
	gen, err := synth.NewGenerator(store, schemas, opts)
	if err != nil {
		return err
	}

	emit, closeOut, err := openRuleSink(cmd.OutOrStdout(), out, filepath.Join(gcfg.DataDir, "rules"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	log.Info("generating rules", "count", gcfg.Count, "policy", gcfg.Policy, "schemas", len(schemas))
	n := 0
	for res := range gen.Generate(ctx, gcfg.Count) {
		if res.Err != nil {
			return fmt.Errorf("rule %d: %w", n+1, res.Err)
		}
		if err := emit(res.Rule); err != nil {
			return err
		}
		n++
	}
	if err := ctx.Err(); err != nil {
		log.Warn("generation interrupted", "generated", n)
		return err
	}
	log.Info("generation complete", "generated", n)
	return nil
}

// openRuleSink returns a function writing one rule per line to stdout, a
// file, or the daily file under dataDir, and the function that finishes the
// output.
func openRuleSink(stdout io.Writer, out, dataDir string) (func(any) error, func() error, error) {
	switch out {
	case "-":
		enc := json.NewEncoder(stdout)
		return enc.Encode, func() error { return nil }, nil
	case "":
		w, err := jsonl.NewWriter(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return func(v any) error {
			_, err := w.Append(v)
			return err
		}, func() error { return nil }, nil
	default:
		f, err := os.Create(out)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s: %w", out, err)
		}
		enc := json.NewEncoder(f)
		return enc.Encode, func() error {
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", out, err)
			}
			return nil
		}, nil
	}
}
