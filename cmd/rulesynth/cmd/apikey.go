package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/solatis/rulesynth/internal/core/auth"
	"github.com/solatis/rulesynth/internal/core/config"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the lookup service",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key; the key is printed once",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyCreate,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd)
	apikeyCreateCmd.Flags().String("client", "", "client id owning the key")
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret id to sign with (default: first configured)")
	_ = apikeyCreateCmd.MarkFlagRequired("client")
}

func newAuthenticator() (*auth.Authenticator, map[string][]byte, func(), error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, nil, nil, fmt.Errorf("no HMAC secrets configured (set RS_HMAC_SECRET environment variable)")
	}
	database, queries, err := openQueries()
	if err != nil {
		return nil, nil, nil, err
	}
	return auth.NewAuthenticator(secrets, queries), secrets, func() { database.Close() }, nil
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	if _, _, err := setup(cmd); err != nil {
		return err
	}
	a, secrets, closeDB, err := newAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	clientID, _ := cmd.Flags().GetString("client")
	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		ids := make([]string, 0, len(secrets))
		for id := range secrets {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		secretID = ids[0]
	}

	issued, err := a.IssueKey(context.Background(), clientID, secretID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\nclient_id:  %s\napi_key:    %s\n", issued.APIKeyID, issued.ClientID, issued.Key)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}
	a, _, closeDB, err := newAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := a.RevokeKey(context.Background(), args[0]); err != nil {
		return err
	}
	log.Info("api key revoked", "api_key_id", args[0])
	return nil
}
