package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/spf13/cobra"
)

func newProductsCommand(e *env) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalogue",
		Run: func(cmd *cobra.Command, _ []string) {
			printProducts(e.app.FetchProducts(cmd.Context(), category))
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "featured",
			Short: "List featured products",
			Run: func(cmd *cobra.Command, _ []string) {
				printProducts(e.app.FetchFeaturedProducts(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "categories",
			Short: "List product categories",
			Run: func(cmd *cobra.Command, _ []string) {
				for _, c := range e.app.FetchCategories(cmd.Context()) {
					fmt.Println(c)
				}
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Search names, descriptions, categories and tags",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				printProducts(e.app.SearchProducts(cmd.Context(), args[0]))
			},
		},
		&cobra.Command{
			Use:   "show <product-id>",
			Short: "Show one product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, ok := e.app.Product(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("product %s not found", args[0])
				}
				printProducts([]catalog.Product{p})
				if p.Description != "" {
					fmt.Println()
					fmt.Println(p.Description)
				}
				return nil
			},
		},
	)
	return cmd
}

func printProducts(products []catalog.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.FinalPrice(), p.Stock)
	}
}

func newCartCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		Run: func(cmd *cobra.Command, _ []string) {
			lines := e.app.FetchCart(cmd.Context())
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tSUBTOTAL")
			for _, l := range lines {
				name := "(no longer available)"
				if l.Product.Populated() {
					name = l.Product.Value.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", l.Product.ID, name, l.Quantity, l.Subtotal())
			}
			w.Flush()
			fmt.Printf("Total: %.2f\n", e.app.Cart().Total())
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return failed(e.app.AddToCart(cmd.Context(), args[0], quantity, "/products/"+args[0]))
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "how many to add")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a line from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e.app.FetchCart(cmd.Context())
				return failed(e.app.RemoveFromCart(cmd.Context(), args[0]))
			},
		},
		&cobra.Command{
			Use:   "qty <product-id> <delta>",
			Short: "Change a line's quantity by delta, e.g. 1 or -1",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				delta, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("delta must be a whole number: %w", err)
				}
				return failed(e.app.UpdateCartQuantity(cmd.Context(), args[0], delta))
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every line from the cart",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return failed(e.app.ClearCart(cmd.Context()))
			},
		},
	)
	return cmd
}

func newWishlistCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show and change the wishlist",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, l := range e.app.FetchWishlist(cmd.Context()) {
				if l.Product.Populated() {
					fmt.Printf("%s\t%s\t%.2f\n", l.Product.ID, l.Product.Value.Name, l.Product.Value.FinalPrice())
				} else {
					fmt.Printf("%s\t(no longer available)\n", l.Product.ID)
				}
			}
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add a product to the wishlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return failed(e.app.AddToWishlist(cmd.Context(), args[0], "/products/"+args[0]))
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the wishlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return failed(e.app.RemoveFromWishlist(cmd.Context(), args[0]))
			},
		},
		&cobra.Command{
			Use:   "move <product-id>",
			Short: "Move a product from the wishlist to the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e.app.FetchCart(cmd.Context())
				return failed(e.app.MoveToCart(cmd.Context(), args[0]))
			},
		},
	)
	return cmd
}

func newCheckoutCommand(e *env) *cobra.Command {
	var checkout orders.Checkout
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, ok := e.app.PlaceOrder(cmd.Context(), checkout)
			if !ok {
				return errActionFailed
			}
			fmt.Printf("Order %s: %d items, %.2f (%s)\n", order.ID, order.ItemCount(), order.TotalAmount, order.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&checkout.PaymentMethod, "payment-method", orders.DefaultPaymentMethod, "payment method")
	cmd.Flags().StringVar(&checkout.PaymentPhone, "phone", "", "phone number for mobile payment")
	return cmd
}

func newOrdersCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Run: func(cmd *cobra.Command, _ []string) {
			printOrders(e.app.FetchMyOrders(cmd.Context()))
		},
	}
}

func printOrders(list []orders.Order) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tCUSTOMER\tITEMS\tTOTAL\tSTATUS\tPLACED")
	for _, o := range list {
		customer := o.User.ID
		if o.User.Populated() {
			customer = o.User.Value.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\n", o.ID, customer, o.ItemCount(), o.TotalAmount, o.Status, o.CreatedAt.Format("2006-01-02"))
	}
}
