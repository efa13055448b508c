package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/solatis/rulesynth/internal/core/api"
	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/exact"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <utterance>",
	Short: "Look up the rule code indexed for an utterance",
	Long: `Lookup matches an utterance against the stored examples. Without --addr the
index is built locally from --db-url; with --addr the query is sent to a
running server using the key in --api-key or RS_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().String("addr", "", "address of a running rulesynth server")
	lookupCmd.Flags().String("api-key", "", "API key for --addr (default $RS_API_KEY)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	utterance := strings.Join(args, " ")
	addr, _ := cmd.Flags().GetString("addr")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	var targets []string
	if addr != "" {
		targets, err = remoteLookup(ctx, cmd, addr, utterance)
	} else {
		targets, err = localLookup(ctx, cfg.Exact.MaxResults, utterance)
	}
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no match for %q", utterance)
	}
	for _, t := range targets {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func localLookup(ctx context.Context, maxResults int, utterance string) ([]string, error) {
	database, queries, err := openQueries()
	if err != nil {
		return nil, err
	}
	defer database.Close()

	m := exact.NewMatcher(maxResults)
	if _, err := m.Load(ctx, db.NewExampleStore(queries)); err != nil {
		return nil, err
	}
	targets, _ := m.Get(utterance)
	return targets, nil
}

func remoteLookup(ctx context.Context, cmd *cobra.Command, addr, utterance string) ([]string, error) {
	key, _ := cmd.Flags().GetString("api-key")
	if key == "" {
		key = os.Getenv("RS_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("--api-key or RS_API_KEY required with --addr")
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", key)
	resp, err := api.NewExactMatchClient(conn).Lookup(ctx, utterance)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, v := range resp.GetFields()["targets"].GetListValue().GetValues() {
		targets = append(targets, v.GetStringValue())
	}
	return targets, nil
}
