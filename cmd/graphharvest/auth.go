package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"graphharvest/pkg/auth"
	"graphharvest/pkg/config"
	"graphharvest/pkg/graph"
	"graphharvest/pkg/ui"
)

var loginVerify bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Graph API access tokens",
	Long: `Manage stored Graph API access tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - GRAPHHARVEST_ACCESS_TOKEN (read only)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an access token securely",
	Long: `Store a Graph API access token under a name. The token is read without
echo. With --verify the token is checked against the /me endpoint first.`,
	Example: `  graphharvest auth login
  graphharvest auth login pages --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	},
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with masked tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}

		accounts, err := manager.List()
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		if len(accounts) == 0 {
			ui.PrintInfo("No stored accounts", "Use 'graphharvest auth login' to add one")
			return nil
		}

		ui.PrintHighlight("Stored Accounts")
		for i, account := range accounts {
			clean := auth.SanitizeAccount(account)
			fmt.Fprintf(ui.Output, "%d. %s\n", i+1, clean.Name)
			fmt.Fprintf(ui.Output, "   Token: %s\n", clean.AccessToken)
			if clean.AppID != "" {
				fmt.Fprintf(ui.Output, "   App ID: %s\n", clean.AppID)
			}
			fmt.Fprintf(ui.Output, "   Last Modified: %s\n", clean.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	loginCmd.Flags().BoolVar(&loginVerify, "verify", false, "check the token against /me before storing it")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowTokenGuide(ui.Output)

	name := "default"
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	} else {
		fmt.Fprint(ui.Output, "Account name [default]: ")
		input, _ := reader.ReadString('\n')
		if input = strings.TrimSpace(input); input != "" {
			name = input
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(ui.Output, "Account '%s' already exists. Replace its token? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(ui.Output, "Access token: ")
	token, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return errors.New("access token is required")
	}

	fmt.Fprint(ui.Output, "App ID (optional): ")
	appID, _ := reader.ReadString('\n')

	if loginVerify {
		if err := verifyToken(cmd.Context(), token); err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		ui.PrintSuccess("Token verified")
	}

	account := &auth.Account{
		Name:        name,
		AccessToken: token,
		AppID:       strings.TrimSpace(appID),
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s (%s)", name, auth.MaskToken(token)))
	fmt.Fprintf(ui.Output, "\nUse it with:\n  graphharvest profile-posts <page-id> --since 2020-01-01 --account %s\n", name)
	return nil
}

// verifyToken fetches /me with the token using the configured endpoint
func verifyToken(ctx context.Context, token string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	client := graph.NewClient(cfg.Graph, graph.StaticToken(token))
	_, err = client.FetchObject(ctx, "me", "id,name")
	return err
}

// readSecret reads a line from the terminal without echo, falling back to
// plain input when stdin is not a terminal.
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Output)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
