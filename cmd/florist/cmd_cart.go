package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// maxScanPages bounds the catalog walk that looks up an offer by ID.
const maxScanPages = 10

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart grouped by supplier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			cart, err := c.carts.GetCart(cmd.Context(), p.OwnerID)
			if err != nil {
				return err
			}
			c.printCart(cart)
			return nil
		},
	}
	cmd.AddCommand(c.cartAddCmd(), c.cartSetCmd(), c.cartRemoveCmd(), c.cartClearCmd())
	return cmd
}

func (c *cli) cartAddCmd() *cobra.Command {
	var (
		qty   int
		query string
	)
	cmd := &cobra.Command{
		Use:   "add <offer-id>",
		Short: "Add an offer to the cart",
		Long: `Adds an offer to its supplier's group. The offer is looked up in the
catalog; pass --query to narrow the search when the catalog is large.
Without --qty one pack is added, or one unit when the offer has no pack
size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, _, err := c.principal(ctx)
			if err != nil {
				return err
			}
			offer, err := c.findOffer(ctx, p.Tokens, args[0], query)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("qty") {
				qty = 1
				if offer.PackSize != nil && *offer.PackSize > 0 {
					qty = *offer.PackSize
				}
			}

			cart, err := c.carts.AddToCart(ctx, p.OwnerID, offer.SupplierID, offer.SupplierName, offer.CartLine(qty))
			if err != nil {
				return err
			}
			c.printf("Added %d × %s from %s\n", qty, offer.Name, offer.SupplierName)
			c.printCart(cart)
			return nil
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 0, "quantity")
	cmd.Flags().StringVarP(&query, "query", "q", "", "catalog search used to find the offer")
	return cmd
}

// findOffer walks catalog pages until it meets the offer with id.
func (c *cli) findOffer(ctx context.Context, tokens marketplace.Tokens, id, query string) (domain.Offer, error) {
	f := domain.NewOfferFilter().WithQuery(query).WithLimit(domain.MaxOfferLimit)
	for range maxScanPages {
		page, err := c.catalog.Search(ctx, tokens, f)
		if err != nil {
			return domain.Offer{}, err
		}
		for _, o := range page.Offers {
			if o.ID == id {
				return o, nil
			}
		}
		if len(page.Offers) == 0 || f.Offset+f.Limit >= page.Total {
			break
		}
		f = f.NextPage()
	}
	return domain.Offer{}, apperrors.NotFound("offer", id)
}

func (c *cli) cartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <supplier-id> <offer-id> <quantity>",
		Short: "Change a line's quantity; the minimum is 1",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number, got %q", args[2])
			}
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			cart, err := c.carts.UpdateQuantity(cmd.Context(), p.OwnerID, args[0], args[1], qty)
			if err != nil {
				return err
			}
			c.printCart(cart)
			return nil
		},
	}
}

func (c *cli) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <supplier-id> <offer-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			cart, err := c.carts.RemoveItem(cmd.Context(), p.OwnerID, args[0], args[1])
			if err != nil {
				return err
			}
			c.printCart(cart)
			return nil
		},
	}
}

func (c *cli) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [supplier-id]",
		Short: "Empty the cart, or one supplier's group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := c.carts.ClearCart(cmd.Context(), p.OwnerID); err != nil {
					return err
				}
				c.printf("Cart cleared.\n")
				return nil
			}
			cart, err := c.carts.ClearSupplierCart(cmd.Context(), p.OwnerID, args[0])
			if err != nil {
				return err
			}
			c.printCart(cart)
			return nil
		},
	}
}

func (c *cli) printCart(cart *domain.Cart) {
	if cart == nil || cart.IsEmpty() {
		c.printf("Your cart is empty.\n")
		return
	}
	for _, g := range cart.Suppliers {
		c.printf("\n%s (%s)\n", g.SupplierName, g.SupplierID)
		t := table.New().Headers("OFFER", "NAME", "QTY", "PRICE", "TOTAL", "")
		for _, l := range g.Items {
			warn := ""
			if l.ExceedsStock() {
				warn = "exceeds stock " + optInt(l.Stock, "")
			}
			t.Row(l.OfferID, l.Name, strconv.Itoa(l.Quantity), l.Price.StringFixed(2), l.LineTotal().StringFixed(2), warn)
		}
		c.printf("%s\n", t.Render())
		c.printf("Subtotal: %s\n", g.Subtotal().StringFixed(2))
	}
	c.printf("\nTotal: %s (%d items)\n", cart.GrandTotal().StringFixed(2), cart.ItemCount())
}

func (c *cli) checkoutCmd() *cobra.Command {
	var address, date, notes string
	cmd := &cobra.Command{
		Use:   "checkout <supplier-id>",
		Short: "Place an order for one supplier's group",
		Long: `Sends the supplier's group of the cart as one order. On success the group
is removed from the cart; on failure the cart is left as it was.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			in := service.CheckoutInput{DeliveryAddress: address}
			if date != "" {
				in.DeliveryDate = &date
			}
			if notes != "" {
				in.Notes = &notes
			}

			order, err := c.checkout.Checkout(cmd.Context(), p, args[0], in)
			if err != nil {
				return err
			}
			if order == nil {
				c.printf("Nothing in the cart from supplier %s.\n", args[0])
				return nil
			}
			c.printf("Order %s placed: %s %s\n", order.ID, c.badge(order.Status), order.TotalAmount.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "delivery address")
	cmd.Flags().StringVar(&date, "date", "", "delivery date, YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the supplier")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
