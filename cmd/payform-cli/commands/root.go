package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"payform-backend/lib/configutil"
	"payform-backend/lib/sqliteutil"
	"payform-backend/services/paymentform"
	"payform-backend/services/paymentform/db"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "payform-cli",
	Short: "payform-cli is a CLI for operating the payment form server.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "Path to the server configuration file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// storeConfig is the part of the server configuration the cli needs.
type storeConfig struct {
	Database sqliteutil.Config `json:"database"`
	Payments struct {
		EncryptionKey string `json:"encryption_key"`
	} `json:"payments"`
}

// openStore opens the submissions database of the server, when no config
// is given the nearest config.json5 in the working directory or its
// parents is used.
func openStore(cmd *cobra.Command) (paymentform.Store, *sql.DB, error) {
	read := configutil.ReadConfig[storeConfig]
	if !cmd.Flags().Changed("config") {
		read = configutil.ReadRecursively[storeConfig]
	}
	cfg, err := read(configPath)
	if err != nil {
		return paymentform.Store{}, nil, fmt.Errorf("read %s: %w", configPath, err)
	}
	configutil.OverrideFromEnv(&cfg.Payments.EncryptionKey, "PAYFORM_ENCRYPTION_KEY")

	sealer, err := paymentform.NewSealer(cfg.Payments.EncryptionKey)
	if err != nil {
		return paymentform.Store{}, nil, fmt.Errorf("payments.encryption_key: %w", err)
	}
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return paymentform.Store{}, nil, err
	}
	return paymentform.NewStore(database, sealer), database, nil
}
