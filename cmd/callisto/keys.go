package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/analytics"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/storage"
)

var keysFlags struct {
	name   string
	format string
	yes    bool
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage proxy API keys",
	Long: `Create, list, rename, and delete the API keys the proxy accepts on its
data plane.

Keys are stored in the control database as SHA-256 digests; the
plaintext is printed exactly once, at creation. The management server
does not need to be running, the commands open the database directly.

Examples:
  # Issue a new key
  callisto keys create --name "ci-bot"

  # List keys with usage counters
  callisto keys list

  # Rename a key
  callisto keys rename 4f3c2e… "nightly-ci"

  # Delete a key and its usage history
  callisto keys delete 4f3c2e…`,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key",
	Long: `Issue a new API key under the given name.

The plaintext key is printed once and never stored; copy it now or
delete the key and issue another.`,
	RunE: createKey,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keys",
	Long:  `List all API keys with their display prefix and usage counters.`,
	RunE:  listKeys,
}

var keysRenameCmd = &cobra.Command{
	Use:   "rename <key-id> <new-name>",
	Short: "Rename a key",
	Long:  `Rename an API key. The key material is unchanged.`,
	Args:  cobra.ExactArgs(2),
	RunE:  renameKey,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Delete a key",
	Long: `Delete an API key along with its recorded usage. Requests presenting
the key are rejected immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: deleteKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRenameCmd, keysDeleteCmd)

	keysCreateCmd.Flags().StringVarP(&keysFlags.name, "name", "n", "", "key name (required)")
	keysListCmd.Flags().StringVar(&keysFlags.format, "format", "table", "output format: table, json")
	keysDeleteCmd.Flags().BoolVarP(&keysFlags.yes, "yes", "y", false, "skip confirmation prompt")
}

// openKeyStore opens the control database for direct key management.
// SQLite's busy timeout covers concurrent access when the server is
// running at the same time.
func openKeyStore() (*config.Config, *keys.Store, func(), error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	control, err := storage.OpenControl(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open control database: %w", err)
	}

	store, err := keys.NewStore(control.DB())
	if err != nil {
		control.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize key store: %w", err)
	}

	cleanup := func() {
		store.Close()
		control.Close()
	}
	return cfg, store, cleanup, nil
}

func createKey(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(keysFlags.name) == "" {
		return cli.NewConfigError("name", "key name is required (--name)")
	}

	_, store, cleanup, err := openKeyStore()
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := store.Create(context.Background(), keysFlags.name)
	if err != nil {
		return cli.NewCommandError("keys create", err)
	}

	fmt.Printf("Key created: %s\n", created.Name)
	fmt.Printf("ID:  %s\n", created.ID)
	fmt.Printf("Key: %s\n", created.Plaintext)
	fmt.Println()
	fmt.Println("⚠️  This is the only time the key is shown. Store it securely.")
	return nil
}

func listKeys(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(keysFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	_, store, cleanup, err := openKeyStore()
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := store.List(context.Background())
	if err != nil {
		return cli.NewCommandError("keys list", err)
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, list)
	}

	if len(list) == 0 {
		fmt.Println("No keys issued yet. Create one with: callisto keys create --name <name>")
		return nil
	}

	table := cli.NewTable(os.Stdout, "ID", "NAME", "PREFIX", "CREATED", "LAST USED", "REQUESTS")
	for _, k := range list {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		table.Row(k.ID, k.Name, k.Prefix+"…",
			k.CreatedAt.Local().Format("2006-01-02 15:04"), lastUsed, k.UsageCount)
	}
	return table.Flush()
}

func renameKey(cmd *cobra.Command, args []string) error {
	_, store, cleanup, err := openKeyStore()
	if err != nil {
		return err
	}
	defer cleanup()

	id, name := args[0], args[1]
	if err := store.Rename(context.Background(), id, name); err != nil {
		if errors.Is(err, keys.ErrNotFound) {
			return cli.NewCommandError("keys rename", fmt.Errorf("no key with ID %s", id))
		}
		return cli.NewCommandError("keys rename", err)
	}

	fmt.Printf("Key %s renamed to %q\n", id, name)
	return nil
}

func deleteKey(cmd *cobra.Command, args []string) error {
	cfg, store, cleanup, err := openKeyStore()
	if err != nil {
		return err
	}
	defer cleanup()

	id := args[0]
	key, err := store.Get(context.Background(), id)
	if err != nil {
		if errors.Is(err, keys.ErrNotFound) {
			return cli.NewCommandError("keys delete", fmt.Errorf("no key with ID %s", id))
		}
		return cli.NewCommandError("keys delete", err)
	}

	if !keysFlags.yes && !confirm(fmt.Sprintf("Delete key %q (%s…)?", key.Name, key.Prefix)) {
		fmt.Println("Aborted")
		return nil
	}

	if err := store.Delete(context.Background(), id); err != nil {
		return cli.NewCommandError("keys delete", err)
	}

	// The key's analytics rows go with it. A failure here only warns:
	// the key itself is already gone.
	if usageStore, err := analytics.Open(cfg.Storage, nil); err == nil {
		if _, err := usageStore.DeleteKey(context.Background(), id); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete usage rows for %s: %v\n", id, err)
		}
		usageStore.Close()
	} else {
		fmt.Fprintf(os.Stderr, "Warning: could not open analytics database: %v\n", err)
	}

	fmt.Printf("Key %q deleted\n", key.Name)
	return nil
}

// confirm prompts on stdin and accepts only an explicit yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
