package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/luggagehub/internal/config"
	tgprovider "github.com/smallbiznis/luggagehub/internal/providers/telegram"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const webhookPath = "/telegram/webhook"

var (
	errBaseURLRequired  = errors.New("base url is required")
	errBotTokenRequired = errors.New("TELEGRAM_BOT_TOKEN is not set")
)

func newSetWebhookCommand() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "set-webhook",
		Short: "Register the Telegram webhook and verify Telegram accepted it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cfg.Telegram.Enabled() {
				return errBotTokenRequired
			}

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			target, err := registerWebhook(ctx, tgprovider.NewFromConfig(cfg, log), baseURL, cfg.Telegram.WebhookSecret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook registered: %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base url of the API, e.g. https://luggage.example.com")
	_ = cmd.MarkFlagRequired("base-url")

	return cmd
}

// registerWebhook points Telegram at baseURL and reads the registration back.
func registerWebhook(ctx context.Context, provider tgprovider.Provider, baseURL, secret string) (string, error) {
	target, err := webhookURL(baseURL)
	if err != nil {
		return "", err
	}

	if err := provider.SetWebhook(ctx, target, secret); err != nil {
		return "", fmt.Errorf("set webhook: %w", err)
	}

	info, err := provider.GetWebhookInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("get webhook info: %w", err)
	}
	if info.URL != target {
		return "", fmt.Errorf("telegram reports webhook %q, expected %q", info.URL, target)
	}
	return target, nil
}

func webhookURL(baseURL string) (string, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return "", errBaseURLRequired
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return "", fmt.Errorf("invalid base url %q", baseURL)
	}
	return baseURL + webhookPath, nil
}
