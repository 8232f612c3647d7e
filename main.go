package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fiffu/buzdealz/app"
	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	root := &cobra.Command{
		Use:   "buzdealz",
		Short: "Deals storefront client with wishlist and price drop alerts",
	}
	root.AddCommand(serveCmd(), dealsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront daemon and its local HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			fx.New(
				fx.Provide(config.NewConfig),
				fx.Provide(NewLogger),
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: log}
				}),

				app.Module,
				fx.Provide(app.NewHTTPServer),

				fx.Invoke(func(*http.Server) {}),
			).Run()
		},
	}
}

func dealsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deals",
		Short: "Print the current deals and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var client *api.Client
			fxApp := fx.New(
				fx.NopLogger,
				fx.Provide(config.NewConfig),
				fx.Provide(NewLogger),
				fx.Provide(app.NewTransport),
				fx.Provide(app.NewHTTPClient),
				fx.Provide(app.NewAPIClient),
				fx.Populate(&client),
			)
			if err := fxApp.Err(); err != nil {
				return err
			}

			deals, err := client.Deals(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch deals: %w", err)
			}
			printDeals(deals)
			return nil
		},
	}
}

func printDeals(deals []models.Deal) {
	now := time.Now()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTORE\tPRICE\tWAS\tOFF\tNOTE")
	for _, d := range deals {
		note := ""
		switch {
		case d.IsExpired(now):
			note = "expired"
		case d.AtBestPrice():
			note = "best price"
		case d.LowPriceAlert(now):
			note = "was cheaper"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%d%%\t%s\n",
			d.ID, d.Title, d.Store, d.Price, d.OriginalPrice, d.Discount, note)
	}
	tw.Flush()
}
