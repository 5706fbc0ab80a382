package domain

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Offer is one supplier's sellable variant of a product.
type Offer struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	SupplierID    string          `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	Name          string          `json:"name"`
	ProductType   string          `json:"product_type,omitempty"`
	LengthCM      *int            `json:"length_cm,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         *int            `json:"stock,omitempty"`
	OriginCountry string          `json:"origin_country,omitempty"`
	Color         string          `json:"color,omitempty"`
	PackSize      *int            `json:"pack_size,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
}

// CartLine builds the cart line for quantity units of the offer.
func (o Offer) CartLine(quantity int) CartLine {
	return CartLine{
		OfferID:   o.ID,
		ProductID: o.ProductID,
		Name:      o.Name,
		Price:     o.Price,
		Quantity:  quantity,
		Stock:     cloneInt(o.Stock),
		LengthCM:  cloneInt(o.LengthCM),
	}
}

// OfferPage is one page of the catalog.
type OfferPage struct {
	Offers []Offer `json:"offers"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

const (
	// DefaultOfferLimit is the catalog page size when none is given.
	DefaultOfferLimit = 20
	MaxOfferLimit     = 100
)

// OfferFilter describes a catalog query. Nil pointers and nil slices are
// unset and are not sent. Every With* setter except WithOffset returns a copy
// with Offset reset to 0.
type OfferFilter struct {
	Q             *string
	ProductType   *string
	LengthMin     *int
	LengthMax     *int
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	OriginCountry []string
	Colors        []string
	SupplierID    *string
	Limit         int
	Offset        int
}

// NewOfferFilter returns an empty filter with the default page size.
func NewOfferFilter() OfferFilter {
	return OfferFilter{Limit: DefaultOfferLimit}
}

func ptr[T any](v T) *T { return &v }

// optString treats "" as unset.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (f OfferFilter) reset() OfferFilter {
	f.Offset = 0
	return f
}

func (f OfferFilter) WithQuery(q string) OfferFilter {
	f.Q = optString(q)
	return f.reset()
}

func (f OfferFilter) WithProductType(t string) OfferFilter {
	f.ProductType = optString(t)
	return f.reset()
}

// WithLength sets the length range in cm; nil clears a bound.
func (f OfferFilter) WithLength(lo, hi *int) OfferFilter {
	f.LengthMin, f.LengthMax = cloneInt(lo), cloneInt(hi)
	return f.reset()
}

// WithPrice sets the price range; nil clears a bound.
func (f OfferFilter) WithPrice(lo, hi *decimal.Decimal) OfferFilter {
	f.PriceMin, f.PriceMax = nil, nil
	if lo != nil {
		f.PriceMin = ptr(*lo)
	}
	if hi != nil {
		f.PriceMax = ptr(*hi)
	}
	return f.reset()
}

func (f OfferFilter) WithOriginCountries(countries ...string) OfferFilter {
	f.OriginCountry = nonEmpty(countries)
	return f.reset()
}

func (f OfferFilter) WithColors(colors ...string) OfferFilter {
	f.Colors = nonEmpty(colors)
	return f.reset()
}

func (f OfferFilter) WithSupplier(id string) OfferFilter {
	f.SupplierID = optString(id)
	return f.reset()
}

// WithLimit changes the page size and restarts from the first page.
func (f OfferFilter) WithLimit(limit int) OfferFilter {
	if limit <= 0 {
		limit = DefaultOfferLimit
	}
	f.Limit = limit
	return f.reset()
}

// WithOffset changes only the offset.
func (f OfferFilter) WithOffset(offset int) OfferFilter {
	f.Offset = max(0, offset)
	return f
}

func (f OfferFilter) NextPage() OfferFilter {
	return f.WithOffset(f.Offset + f.limit())
}

func (f OfferFilter) PrevPage() OfferFilter {
	return f.WithOffset(f.Offset - f.limit())
}

func (f OfferFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultOfferLimit
	}
	return f.Limit
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Values encodes the set fields as query parameters. Multi-valued fields
// repeat their key.
func (f OfferFilter) Values() url.Values {
	v := url.Values{}
	if f.Q != nil {
		v.Set("q", *f.Q)
	}
	if f.ProductType != nil {
		v.Set("product_type", *f.ProductType)
	}
	if f.LengthMin != nil {
		v.Set("length_min", strconv.Itoa(*f.LengthMin))
	}
	if f.LengthMax != nil {
		v.Set("length_max", strconv.Itoa(*f.LengthMax))
	}
	if f.PriceMin != nil {
		v.Set("price_min", f.PriceMin.String())
	}
	if f.PriceMax != nil {
		v.Set("price_max", f.PriceMax.String())
	}
	for _, c := range f.OriginCountry {
		v.Add("origin_country", c)
	}
	for _, c := range f.Colors {
		v.Add("colors", c)
	}
	if f.SupplierID != nil {
		v.Set("supplier_id", *f.SupplierID)
	}
	v.Set("limit", strconv.Itoa(f.limit()))
	v.Set("offset", strconv.Itoa(max(0, f.Offset)))
	return v
}

// ParseOfferFilter is the inverse of Values. Malformed numbers are reported
// as field errors keyed by parameter name.
func ParseOfferFilter(v url.Values) (OfferFilter, map[string]string) {
	f := NewOfferFilter()
	errs := map[string]string{}

	f.Q = optString(v.Get("q"))
	f.ProductType = optString(v.Get("product_type"))
	f.SupplierID = optString(v.Get("supplier_id"))
	f.OriginCountry = nonEmpty(v["origin_country"])
	f.Colors = nonEmpty(v["colors"])

	intParam := func(key string) *int {
		s := v.Get(key)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errs[key] = "must be a non-negative integer"
			return nil
		}
		return &n
	}
	decParam := func(key string) *decimal.Decimal {
		s := v.Get(key)
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			errs[key] = "must be a non-negative number"
			return nil
		}
		return &d
	}

	f.LengthMin = intParam("length_min")
	f.LengthMax = intParam("length_max")
	f.PriceMin = decParam("price_min")
	f.PriceMax = decParam("price_max")
	if n := intParam("limit"); n != nil && *n > 0 {
		f.Limit = min(*n, MaxOfferLimit)
	}
	if n := intParam("offset"); n != nil {
		f.Offset = *n
	}

	if len(errs) == 0 {
		return f, nil
	}
	return f, errs
}
