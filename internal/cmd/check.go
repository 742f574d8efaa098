package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zhima-Mochi/minishop-storebot/internal/config"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and the seed catalog",
	Long: `Load the configuration and seed catalog exactly as "run" would and
print a summary. Nothing is contacted, so a missing bot token is reported
but not fatal.`,
	RunE: checkConfig,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkConfig(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	c, err := newCore(cmd.Context(), cfg, nil, observability.Nop())
	if err != nil {
		return err
	}

	token := "set"
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		token = "MISSING (required for run)"
	}
	forwarding := "disabled"
	if cfg.RabbitMQ.URL != "" {
		forwarding = "exchange " + cfg.RabbitMQ.Exchange
	}
	methods := make([]string, 0, len(c.payments))
	for _, m := range c.payments.Enabled() {
		methods = append(methods, string(m))
	}

	fmt.Fprintf(out, "service:         %s (%s)\n", cfg.Service.Name, cfg.Service.Env)
	fmt.Fprintf(out, "bot token:       %s\n", token)
	fmt.Fprintf(out, "admins:          %d\n", len(c.policy.Admins()))
	fmt.Fprintf(out, "http:            %s\n", cfg.HTTP.Addr)
	fmt.Fprintf(out, "payment methods: %s\n", strings.Join(methods, ", "))
	fmt.Fprintf(out, "catalog:         %d categories, %d products\n", c.seeded.Categories, c.seeded.Products)
	fmt.Fprintf(out, "notify:          %d attempts, %s delay\n", cfg.Notify.MaxAttempts, cfg.Notify.RetryDelay)
	fmt.Fprintf(out, "event forwarding: %s\n", forwarding)
	return nil
}
