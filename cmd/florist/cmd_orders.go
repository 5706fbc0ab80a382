package main

import (
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/tui"
)

func (c *cli) ordersCmd() *cobra.Command {
	var (
		status string
		limit  int
		page   int
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			f := domain.OrderFilter{Status: domain.OrderStatus(status), Limit: limit, Offset: (max(page, 1) - 1) * limit}
			out, err := c.orders.List(cmd.Context(), p, f)
			if err != nil {
				return err
			}
			c.printOrders(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")
	cmd.Flags().IntVar(&limit, "limit", 20, "orders per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			view, err := c.orders.Get(cmd.Context(), p, args[0])
			if err != nil {
				return err
			}
			c.printOrder(view)
			return nil
		},
	})
	return cmd
}

func (c *cli) badge(status domain.OrderStatus) string {
	return tui.RenderBadge(domain.BadgeFor(status))
}

func (c *cli) printOrders(out *service.OrderPage) {
	if len(out.Orders) == 0 {
		c.printf("No orders yet.\n")
		return
	}
	t := table.New().Headers("ORDER", "DATE", "SUPPLIER", "STATUS", "TOTAL")
	for _, o := range out.Orders {
		t.Row(o.ID, o.CreatedAt.Format("2006-01-02"), o.SupplierID, tui.RenderBadge(o.Badge), o.TotalAmount.StringFixed(2))
	}
	c.printf("%s\n%d of %d orders\n", t.Render(), len(out.Orders), out.Total)
}

func (c *cli) printOrder(o *service.OrderView) {
	c.printf("Order %s  %s\n", o.ID, tui.RenderBadge(o.Badge))
	c.printf("Supplier: %s\n", o.SupplierID)
	c.printf("Placed:   %s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	c.printf("Address:  %s\n", o.DeliveryAddress)
	if o.DeliveryDate != nil {
		c.printf("Delivery: %s\n", *o.DeliveryDate)
	}
	if o.Notes != nil {
		c.printf("Notes:    %s\n", *o.Notes)
	}
	if o.RejectionReason != nil {
		c.printf("Rejected: %s\n", *o.RejectionReason)
	}

	t := table.New().Headers("OFFER", "NAME", "QTY", "UNIT", "TOTAL")
	for _, it := range o.Items {
		t.Row(it.OfferID, it.Name, strconv.Itoa(it.Quantity), it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2))
	}
	c.printf("%s\nTotal: %s\n", t.Render(), o.TotalAmount.StringFixed(2))
}
