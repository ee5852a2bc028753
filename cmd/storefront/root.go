package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/notify"
	"github.com/jrsteele09/go-storefront/sessions/filestore"
	"github.com/jrsteele09/go-storefront/storefront"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"
)

// env is what every subcommand runs against, built once the flags are parsed
type env struct {
	config   config.Config
	app      *storefront.App
	location *notify.Location
	registry *prometheus.Registry
	logger   zerolog.Logger
}

type rootFlags struct {
	noColor bool
	banner  bool
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	e := &env{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop from the terminal: browse products, manage your cart and wishlist, place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd.Context(), flags)
		},
	}
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable coloured output")
	cmd.PersistentFlags().BoolVar(&flags.banner, "banner", false, "print the application banner")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newLoginCommand(e),
		newRegisterCommand(e),
		newLogoutCommand(e),
		newWhoamiCommand(e),
		newProfileCommand(e),
		newProductsCommand(e),
		newCartCommand(e),
		newWishlistCommand(e),
		newCheckoutCommand(e),
		newOrdersCommand(e),
		newAdminCommand(e),
	)
	return cmd
}

func (e *env) setup(ctx context.Context, flags *rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e.config = config.New()

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	level := e.config.GetLogLevel()
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	e.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: flags.noColor}).
		Level(level).With().Timestamp().Str("env", e.config.GetEnv()).Logger()
	log.Logger = e.logger

	if flags.banner {
		displayAppname(e.config.GetAppName())
	}

	e.registry = prometheus.NewRegistry()
	m := metrics.New(e.registry)

	client := api.NewClient(e.config.GetAPIBaseURL(),
		api.WithTimeout(e.config.GetHTTPTimeout()),
		api.WithLogger(e.logger),
		api.WithMetrics(m))

	var storeOpts []filestore.Option
	if passphrase := e.config.GetSessionPassphrase(); passphrase != "" {
		storeOpts = append(storeOpts, filestore.WithPassphrase(passphrase))
	}
	store := filestore.New(e.config.GetSessionFile(), storeOpts...)

	color := !flags.noColor && isatty.IsTerminal(os.Stdout.Fd())
	notifier := notify.NewConsoleNotifier(os.Stdout, color, e.logger)
	e.location = notify.NewLocation(e.config.GetHomePath(), func(path string) {
		fmt.Fprintf(os.Stdout, "-> %s\n", path)
	})

	app, err := storefront.New(client, store, notifier, e.location,
		storefront.WithLogger(e.logger),
		storefront.WithMetrics(m),
		storefront.WithLoginPath(e.config.GetLoginPath()),
		storefront.WithHomePath(e.config.GetHomePath()))
	if err != nil {
		return err
	}
	app.Start(ctx)
	e.app = app
	return nil
}

// failed turns a false result into a non-zero exit; the user has already been told why
func failed(ok bool) error {
	if ok {
		return nil
	}
	return errActionFailed
}

var errActionFailed = fmt.Errorf("action failed")
