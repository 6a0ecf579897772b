package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/secrets"
)

// tokenCmd represents the token parent command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored service token",
	Long: `Manage the bearer token kept in the system keychain (macOS).

The token is used when neither --token nor server.token is set.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the service token",
	Long: `Store the service token in the keychain.

Without an argument the token is read from standard input:
  echo "$KYR_TOKEN" | kyr token set`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			t, err := readToken(cmd.InOrStdin())
			if err != nil {
				return err
			}
			token = t
		}
		return storeToken(secrets.Default(), token)
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored service token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := secrets.DeleteAPIToken(secrets.Default())
		switch {
		case errors.Is(err, secrets.ErrNotFound):
			fmt.Println("No token stored.")
			return nil
		case errors.Is(err, secrets.ErrNotSupported):
			return fmt.Errorf("no keychain on this platform: nothing to clear")
		case err != nil:
			return fmt.Errorf("failed to remove token: %w", err)
		}
		fmt.Println("✅ Token removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
}

func readToken(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && f == os.Stdin {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprint(os.Stderr, "Token: ")
		}
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func storeToken(store secrets.SecretStore, token string) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if !store.IsSupported() {
		return fmt.Errorf("no keychain on this platform: set server.token in the config file or pass --token")
	}
	if err := secrets.SetAPIToken(store, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	fmt.Println("✅ Token stored in the keychain")
	return nil
}
