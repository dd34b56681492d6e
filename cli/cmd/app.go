package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	adscfg "github.com/eimribar/ads-command-center/cli/internal/config"
	"github.com/eimribar/ads-command-center/cli/internal/prompt"
	"github.com/eimribar/ads-command-center/cli/internal/render"
	"github.com/eimribar/ads-command-center/pkg/aggregate"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/monitoring"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

// App is everything a command needs, assembled once per invocation.
type App struct {
	Settings     adscfg.Settings
	SettingsPath string
	Env          config.Lookup
	Logger       logging.Logger
	Metrics      *monitoring.MetricsCollector
	Registry     *platform.Registry
	Render       *render.Renderer
	Prompt       *prompt.Prompter
	Validator    *validation.ConversionValidator
	Timeout      time.Duration
	Now          func() time.Time
}

// resolveRange turns a --period value into dates. An empty period uses the
// configured default; an unrecognized preset is accepted with a warning.
func (a *App) resolveRange(period string) (daterange.Range, error) {
	if strings.TrimSpace(period) == "" {
		period = a.Settings.DefaultPeriod
	}
	r, err := daterange.Resolve(period, a.Now())
	if err != nil {
		return daterange.Range{}, validation.Errorf("period", "%v", err)
	}
	if r.Fallback {
		a.Logger.WithField("period", period).Warnf("Unknown period, using %s", r)
	}
	return r, nil
}

func (a *App) fanOutOptions(operation string) aggregate.Options {
	return aggregate.Options{
		Timeout:   a.Timeout,
		Operation: operation,
		Logger:    a.Logger,
		Observer:  a.Metrics,
	}
}

func contextWithTimeout(cmd *cobra.Command, app *App) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), app.Timeout)
}
