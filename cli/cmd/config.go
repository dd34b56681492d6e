package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	adscfg "github.com/eimribar/ads-command-center/cli/internal/config"
	"github.com/eimribar/ads-command-center/pkg/clients/analytics"
	"github.com/eimribar/ads-command-center/pkg/clients/googleads"
	"github.com/eimribar/ads-command-center/pkg/clients/meta"
	"github.com/eimribar/ads-command-center/pkg/clients/reddit"
	"github.com/eimribar/ads-command-center/pkg/clients/tiktok"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

// credentialKeys are the variables set-secret accepts, grouped by platform.
var credentialKeys = []string{
	meta.EnvAccessToken, meta.EnvAdAccountID, meta.EnvPixelID, meta.EnvAPIVersion,
	googleads.EnvDeveloperToken, googleads.EnvClientID, googleads.EnvClientSecret, googleads.EnvRefreshToken,
	googleads.EnvCustomerID, googleads.EnvLoginCustomerID, googleads.EnvConversionActionID,
	tiktok.EnvAccessToken, tiktok.EnvAdvertiserID, tiktok.EnvPixelID,
	reddit.EnvAccessToken, reddit.EnvAdAccountID, reddit.EnvPixelID,
	analytics.EnvPropertyID, analytics.EnvAccessToken, analytics.EnvClientID, analytics.EnvClientSecret, analytics.EnvRefreshToken,
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Show and change settings and credentials"}
	cfg.AddCommand(newConfigShowCmd(opts))
	cfg.AddCommand(newConfigSetCmd(opts))
	cfg.AddCommand(newConfigSetSecretCmd(opts))
	return cfg
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print settings and which credentials are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := opts.app
			values := app.Settings.Values()
			creds := make(map[string]bool, len(credentialKeys))
			for _, key := range credentialKeys {
				creds[key] = app.Env.Has(key)
			}
			if app.Render.JSON() {
				return app.Render.WriteJSON(map[string]any{
					"path":        app.SettingsPath,
					"settings":    values,
					"credentials": creds,
				})
			}

			out := app.Render
			out.Blank()
			out.Title("⚙️  Settings (%s)", app.SettingsPath)
			rows := make([][]string, 0, len(values))
			for _, key := range adscfg.Keys() {
				rows = append(rows, []string{key, values[key]})
			}
			out.Table([]string{"Key", "Value"}, rows)

			out.Blank()
			out.Title("Credentials")
			rows = rows[:0]
			for _, key := range credentialKeys {
				state := "-"
				if creds[key] {
					state = "set"
				}
				rows = append(rows, []string{key, state})
			}
			out.Table([]string{"Variable", "State"}, rows)
			return nil
		},
	}
}

func newConfigSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change a setting in config.yaml",
		Long:      "Change a setting in config.yaml. Keys: " + strings.Join(adscfg.Keys(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: adscfg.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := opts.app
			settings := app.Settings
			if err := settings.Set(args[0], args[1]); err != nil {
				return validation.Errorf(args[0], "%v", err)
			}
			if err := adscfg.Save(settings, app.SettingsPath); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			app.Settings = settings
			app.Render.Success("%s = %s", args[0], settings.Values()[args[0]])
			return nil
		},
	}
}

func newConfigSetSecretCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <KEY> [value]",
		Short: "Store a platform credential in ~/.adscc/.env",
		Long: "Store a platform credential in ~/.adscc/.env. Without a value it is read from the terminal without echo.\n" +
			"Keys: " + strings.Join(credentialKeys, ", "),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := opts.app
			key := strings.ToUpper(strings.TrimSpace(args[0]))
			if !slices.Contains(credentialKeys, key) {
				return validation.Errorf("key", "unknown credential %q", args[0])
			}
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				var err error
				value, err = app.Prompt.Secret(key)
				if err != nil {
					return fmt.Errorf("read %s: %w", key, err)
				}
			}
			if strings.TrimSpace(value) == "" {
				return validation.Errorf("value", "%s must not be empty", key)
			}
			if err := adscfg.SaveEnvValue(opts.envFile, key, value); err != nil {
				return fmt.Errorf("save %s: %w", key, err)
			}
			app.Render.Success("%s saved", key)
			return nil
		},
	}
}
