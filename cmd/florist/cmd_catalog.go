package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/tui"
)

// offerFlags are the catalog filters shared by offers and browse.
type offerFlags struct {
	query       string
	productType string
	colors      []string
	origins     []string
	supplier    string
	lengthMin   int
	lengthMax   int
	priceMin    string
	priceMax    string
	limit       int
	page        int
}

func (o *offerFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.query, "query", "q", "", "free-text search")
	fs.StringVar(&o.productType, "type", "", "product type")
	fs.StringSliceVar(&o.colors, "color", nil, "color (repeatable)")
	fs.StringSliceVar(&o.origins, "origin", nil, "origin country (repeatable)")
	fs.StringVar(&o.supplier, "supplier", "", "supplier ID")
	fs.IntVar(&o.lengthMin, "length-min", 0, "minimum stem length, cm")
	fs.IntVar(&o.lengthMax, "length-max", 0, "maximum stem length, cm")
	fs.StringVar(&o.priceMin, "price-min", "", "minimum price")
	fs.StringVar(&o.priceMax, "price-max", "", "maximum price")
	fs.IntVar(&o.limit, "limit", domain.DefaultOfferLimit, "offers per page")
	fs.IntVar(&o.page, "page", 1, "page number")
}

// filter maps the flags onto a catalog query. Unset flags stay unset.
func (o *offerFlags) filter(fs *pflag.FlagSet) (domain.OfferFilter, error) {
	f := domain.NewOfferFilter().
		WithQuery(o.query).
		WithProductType(o.productType).
		WithColors(o.colors...).
		WithOriginCountries(o.origins...).
		WithSupplier(o.supplier)

	var lo, hi *int
	if fs.Changed("length-min") {
		lo = &o.lengthMin
	}
	if fs.Changed("length-max") {
		hi = &o.lengthMax
	}
	f = f.WithLength(lo, hi)

	pmin, err := optDecimal("price-min", o.priceMin)
	if err != nil {
		return f, err
	}
	pmax, err := optDecimal("price-max", o.priceMax)
	if err != nil {
		return f, err
	}
	f = f.WithPrice(pmin, pmax)

	if o.limit < 1 || o.limit > domain.MaxOfferLimit {
		return f, fmt.Errorf("--limit must be between 1 and %d", domain.MaxOfferLimit)
	}
	if o.page < 1 {
		return f, fmt.Errorf("--page must be at least 1")
	}
	f = f.WithLimit(o.limit)
	return f.WithOffset((o.page - 1) * o.limit), nil
}

func optDecimal(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("--%s must be a number", flag)
	}
	return &d, nil
}

func (c *cli) offersCmd() *cobra.Command {
	var flags offerFlags
	cmd := &cobra.Command{
		Use:     "offers",
		Aliases: []string{"catalog"},
		Short:   "List catalog offers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.filter(cmd.Flags())
			if err != nil {
				return err
			}
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			page, err := c.catalog.Search(cmd.Context(), p.Tokens, f)
			if err != nil {
				return err
			}
			c.printOffers(page)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (c *cli) printOffers(page *domain.OfferPage) {
	if len(page.Offers) == 0 {
		c.printf("No offers match your search.\n")
		return
	}

	t := table.New().Headers("ID", "NAME", "PRICE", "LENGTH", "PACK", "STOCK", "SUPPLIER")
	for _, o := range page.Offers {
		t.Row(o.ID, o.Name, o.Price.StringFixed(2), optInt(o.LengthCM, " cm"), optInt(o.PackSize, ""), optInt(o.Stock, ""), o.SupplierName)
	}
	c.printf("%s\n", t.Render())

	limit := max(1, page.Limit)
	c.printf("Page %d of %d · %d offers\n", page.Offset/limit+1, max(1, (page.Total+limit-1)/limit), page.Total)
}

func optInt(p *int, suffix string) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p) + suffix
}

func (c *cli) browseCmd() *cobra.Command {
	var flags offerFlags
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search the catalog interactively and add offers to the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.filter(cmd.Flags())
			if err != nil {
				return err
			}
			p, _, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}

			final, err := tui.RunCatalog(cmd.Context(), tui.CatalogConfig{
				Search:   c.catalog,
				Cart:     c.carts,
				Tokens:   p.Tokens,
				OwnerID:  p.OwnerID,
				Filter:   f,
				Debounce: c.profile.SearchDebounce,
				Timeout:  c.profile.Timeout,
			})
			if err != nil {
				return err
			}
			if cart := final.Cart(); cart != nil {
				c.printf("Cart: %d items from %d suppliers, %s total\n", cart.ItemCount(), len(cart.Suppliers), cart.GrandTotal().StringFixed(2))
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
