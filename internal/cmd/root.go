package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storebot",
	Short: "Telegram storefront bot",
	Long: `storebot runs a Telegram shop: customers browse the catalog, fill a
cart and pay by manual transfer with a photo proof; admins manage the
catalog and approve, decline and ship orders from the same chat.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ./storebot.yaml or /etc/storebot/storebot.yaml)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
