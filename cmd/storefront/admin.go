package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newAdminCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office commands (admin accounts only)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "orders",
			Short: "List every customer's orders",
			Run: func(cmd *cobra.Command, _ []string) {
				all := e.app.FetchAllOrders(cmd.Context())
				if e.app.IsAdmin() {
					printOrders(all)
				}
			},
		},
		&cobra.Command{
			Use:       "status <order-id> <status>",
			Short:     "Move an order to a new status",
			Args:      cobra.ExactArgs(2),
			ValidArgs: statusNames(),
			RunE: func(cmd *cobra.Command, args []string) error {
				return failed(e.app.UpdateOrderStatus(cmd.Context(), args[0], orders.Status(args[1])))
			},
		},
		newWatchCommand(e),
		newAdminProductsCommand(e),
	)
	return cmd
}

func statusNames() []string {
	names := make([]string, 0, len(orders.Statuses))
	for _, s := range orders.Statuses {
		names = append(names, string(s))
	}
	return names
}

func newWatchCommand(e *env) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep orders and products fresh until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval == 0 {
				interval = e.config.GetPollInterval()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				server := &http.Server{Addr: metricsAddr, Handler: metricsHandler(e)}
				go listenAndServe(e, server)
				defer shutdown(server)
			}
			return e.app.WatchAdmin(ctx, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (defaults to POLL_INTERVAL)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func metricsHandler(e *env) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	return mux
}

func listenAndServe(e *env, server *http.Server) {
	e.logger.Info().Str("addr", server.Addr).Msg("metrics listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.logger.Error().Err(err).Msg("metrics server failed")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

func newAdminProductsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Create, update and delete products",
	}

	var (
		np        catalog.NewProduct
		imagePath string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				np.Image = &catalog.Image{FileName: filepath.Base(imagePath), Content: f}
			}
			p, ok := e.app.CreateProduct(cmd.Context(), np)
			if !ok {
				return errActionFailed
			}
			printProducts([]catalog.Product{p})
			return nil
		},
	}
	create.Flags().StringVar(&np.Name, "name", "", "product name")
	create.Flags().StringVar(&np.Description, "description", "", "product description")
	create.Flags().Float64Var(&np.Price, "price", 0, "price before discount")
	create.Flags().IntVar(&np.Discount, "discount", 0, "discount percentage")
	create.Flags().IntVar(&np.Stock, "stock", 0, "units in stock")
	create.Flags().StringVar(&np.Category, "category", "", "category")
	create.Flags().StringSliceVar(&np.Tags, "tags", nil, "comma separated tags")
	create.Flags().BoolVar(&np.IsFeatured, "featured", false, "feature on the home page")
	create.Flags().StringVar(&imagePath, "image", "", "image file to upload")

	var (
		name, description, category string
		price                       float64
		discount, stock             int
		tags                        []string
		featured                    bool
	)
	update := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Change a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch catalog.ProductPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = utils.Ptr(name)
			}
			if flags.Changed("description") {
				patch.Description = utils.Ptr(description)
			}
			if flags.Changed("category") {
				patch.Category = utils.Ptr(category)
			}
			if flags.Changed("price") {
				patch.Price = utils.Ptr(price)
			}
			if flags.Changed("discount") {
				patch.Discount = utils.Ptr(discount)
			}
			if flags.Changed("stock") {
				patch.Stock = utils.Ptr(stock)
			}
			if flags.Changed("tags") {
				patch.Tags = utils.Ptr(tags)
			}
			if flags.Changed("featured") {
				patch.IsFeatured = utils.Ptr(featured)
			}
			p, ok := e.app.UpdateProduct(cmd.Context(), args[0], patch)
			if !ok {
				return errActionFailed
			}
			printProducts([]catalog.Product{p})
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "product name")
	update.Flags().StringVar(&description, "description", "", "product description")
	update.Flags().StringVar(&category, "category", "", "category")
	update.Flags().Float64Var(&price, "price", 0, "price before discount")
	update.Flags().IntVar(&discount, "discount", 0, "discount percentage")
	update.Flags().IntVar(&stock, "stock", 0, "units in stock")
	update.Flags().StringSliceVar(&tags, "tags", nil, "comma separated tags")
	update.Flags().BoolVar(&featured, "featured", false, "feature on the home page")

	cmd.AddCommand(
		create,
		update,
		&cobra.Command{
			Use:   "delete <product-id>",
			Short: "Delete a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return failed(e.app.DeleteProduct(cmd.Context(), args[0]))
			},
		},
	)
	return cmd
}
