package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SupplierItem is a normalized product of one supplier.
type SupplierItem struct {
	ID            string           `json:"id"`
	SupplierID    string           `json:"supplier_id"`
	RawName       string           `json:"raw_name"`
	Name          string           `json:"name"`
	ProductType   string           `json:"product_type,omitempty"`
	Variety       string           `json:"variety,omitempty"`
	Color         string           `json:"color,omitempty"`
	OriginCountry string           `json:"origin_country,omitempty"`
	Status        string           `json:"status"`
	Variants      []OfferCandidate `json:"variants,omitempty"`
}

// OfferCandidate is a sellable variant of a supplier item.
type OfferCandidate struct {
	ID       string           `json:"id"`
	ItemID   string           `json:"item_id"`
	LengthCM *int             `json:"length_cm,omitempty"`
	PackSize *int             `json:"pack_size,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Status   string           `json:"status,omitempty"`
}

// AssortmentRow is one (item, variant) pair. Variant fields are empty for an
// item without variants.
type AssortmentRow struct {
	ItemID        string           `json:"item_id"`
	SupplierID    string           `json:"supplier_id"`
	RawName       string           `json:"raw_name"`
	Name          string           `json:"name"`
	ProductType   string           `json:"product_type,omitempty"`
	Variety       string           `json:"variety,omitempty"`
	Color         string           `json:"color,omitempty"`
	OriginCountry string           `json:"origin_country,omitempty"`
	Status        string           `json:"status"`
	VariantID     string           `json:"variant_id,omitempty"`
	LengthCM      *int             `json:"length_cm,omitempty"`
	PackSize      *int             `json:"pack_size,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Stock         *int             `json:"stock,omitempty"`
	VariantStatus string           `json:"variant_status,omitempty"`
}

// Flatten produces one row per variant, or one row for an item with none.
func Flatten(items []SupplierItem) []AssortmentRow {
	rows := make([]AssortmentRow, 0, len(items))
	for _, it := range items {
		base := AssortmentRow{
			ItemID:        it.ID,
			SupplierID:    it.SupplierID,
			RawName:       it.RawName,
			Name:          it.Name,
			ProductType:   it.ProductType,
			Variety:       it.Variety,
			Color:         it.Color,
			OriginCountry: it.OriginCountry,
			Status:        it.Status,
		}
		if len(it.Variants) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, v := range it.Variants {
			row := base
			row.VariantID = v.ID
			row.LengthCM = v.LengthCM
			row.PackSize = v.PackSize
			row.Price = v.Price
			row.Stock = v.Stock
			row.VariantStatus = v.Status
			rows = append(rows, row)
		}
	}
	return rows
}

// Column names an assortment column.
type Column string

const (
	ColName          Column = "name"
	ColProductType   Column = "product_type"
	ColColor         Column = "color"
	ColOriginCountry Column = "origin_country"
	ColStatus        Column = "status"
	ColLengthCM      Column = "length_cm"
	ColPrice         Column = "price"
	ColStock         Column = "stock"
)

// Categorical reports whether c is filtered by multi-select.
func (c Column) Categorical() bool {
	switch c {
	case ColProductType, ColColor, ColOriginCountry, ColStatus:
		return true
	}
	return false
}

// Numeric reports whether c is filtered by a min/max range.
func (c Column) Numeric() bool {
	switch c {
	case ColLengthCM, ColPrice, ColStock:
		return true
	}
	return false
}

// Sortable reports whether the table can be sorted by c.
func (c Column) Sortable() bool {
	return c == ColName || c.Categorical() || c.Numeric()
}

func (r AssortmentRow) text(c Column) string {
	switch c {
	case ColName:
		return r.Name
	case ColProductType:
		return r.ProductType
	case ColColor:
		return r.Color
	case ColOriginCountry:
		return r.OriginCountry
	case ColStatus:
		return r.Status
	}
	return ""
}

func intDecimal(p *int) *decimal.Decimal {
	if p == nil {
		return nil
	}
	d := decimal.NewFromInt(int64(*p))
	return &d
}

func (r AssortmentRow) number(c Column) *decimal.Decimal {
	switch c {
	case ColLengthCM:
		return intDecimal(r.LengthCM)
	case ColPrice:
		return r.Price
	case ColStock:
		return intDecimal(r.Stock)
	}
	return nil
}

// Range bounds a numeric column. Nil bounds are open.
type Range struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func (rg Range) contains(d decimal.Decimal) bool {
	if rg.Min != nil && d.LessThan(*rg.Min) {
		return false
	}
	if rg.Max != nil && d.GreaterThan(*rg.Max) {
		return false
	}
	return true
}

// AssortmentFilter holds column filters. Empty selections and ranges with
// both bounds open do not filter.
type AssortmentFilter struct {
	Search  string
	Selects map[Column][]string
	Ranges  map[Column]Range
}

// Match reports whether row passes every active filter. A row without a value
// for a filtered numeric column does not pass.
func (f AssortmentFilter) Match(row AssortmentRow) bool {
	if q := strings.TrimSpace(strings.ToLower(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(row.Name), q) && !strings.Contains(strings.ToLower(row.RawName), q) {
			return false
		}
	}
	for col, allowed := range f.Selects {
		if len(allowed) > 0 && !slices.Contains(allowed, row.text(col)) {
			return false
		}
	}
	for col, rg := range f.Ranges {
		if rg.Min == nil && rg.Max == nil {
			continue
		}
		v := row.number(col)
		if v == nil || !rg.contains(*v) {
			return false
		}
	}
	return true
}

// Apply returns the rows that match, in their original order.
func (f AssortmentFilter) Apply(rows []AssortmentRow) []AssortmentRow {
	out := make([]AssortmentRow, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortDirection is one of the three sort states.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	}
	return "none"
}

// SortState is the single active sort column.
type SortState struct {
	Column    Column
	Direction SortDirection
}

// Toggle advances the sort for a click on col: ascending, then descending,
// then unsorted. A different column starts at ascending.
func (s SortState) Toggle(col Column) SortState {
	if s.Column != col || s.Direction == SortNone {
		return SortState{Column: col, Direction: SortAsc}
	}
	if s.Direction == SortAsc {
		return SortState{Column: col, Direction: SortDesc}
	}
	return SortState{}
}

// ParseSort reads "price", "-price" or "" into a sort state.
func ParseSort(s string) (SortState, error) {
	if s == "" {
		return SortState{}, nil
	}
	dir := SortAsc
	if strings.HasPrefix(s, "-") {
		dir, s = SortDesc, s[1:]
	}
	col := Column(s)
	if !col.Sortable() {
		return SortState{}, fmt.Errorf("unknown sort column %q", s)
	}
	return SortState{Column: col, Direction: dir}, nil
}

// Sort returns a stably sorted copy of rows. Rows missing the sort value go
// last in both directions.
func (s SortState) Sort(rows []AssortmentRow) []AssortmentRow {
	out := slices.Clone(rows)
	if s.Direction == SortNone || !s.Column.Sortable() {
		return out
	}
	sign := 1
	if s.Direction == SortDesc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b AssortmentRow) int {
		if s.Column.Numeric() {
			av, bv := a.number(s.Column), b.number(s.Column)
			switch {
			case av == nil && bv == nil:
				return 0
			case av == nil:
				return 1
			case bv == nil:
				return -1
			}
			return sign * av.Cmp(*bv)
		}
		at, bt := a.text(s.Column), b.text(s.Column)
		switch {
		case at == "" && bt == "":
			return 0
		case at == "":
			return 1
		case bt == "":
			return -1
		}
		return sign * cmp.Compare(strings.ToLower(at), strings.ToLower(bt))
	})
	return out
}

// EditKind is the resource an inline edit targets.
type EditKind string

const (
	EditItem    EditKind = "item"
	EditVariant EditKind = "variant"
)

type fieldType int

const (
	fieldText fieldType = iota
	fieldInt
	fieldDecimal
)

var editableFields = map[EditKind]map[string]fieldType{
	EditItem: {
		"name":           fieldText,
		"product_type":   fieldText,
		"variety":        fieldText,
		"color":          fieldText,
		"origin_country": fieldText,
		"status":         fieldText,
	},
	EditVariant: {
		"length_cm": fieldInt,
		"pack_size": fieldInt,
		"price":     fieldDecimal,
		"stock":     fieldInt,
		"status":    fieldText,
	},
}

// FieldEdit changes one field of an item or variant. Previous is the last
// value the editor saw confirmed by the server.
type FieldEdit struct {
	Kind     EditKind `json:"kind"`
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Value    any      `json:"value"`
	Previous any      `json:"previous,omitempty"`
}

// Validate rejects unknown fields and values of the wrong type. It runs
// before anything is sent.
func (e FieldEdit) Validate() error {
	fields, ok := editableFields[e.Kind]
	if !ok {
		return fmt.Errorf("unknown edit target %q", e.Kind)
	}
	if e.ID == "" {
		return fmt.Errorf("%s id is required", e.Kind)
	}
	ft, ok := fields[e.Field]
	if !ok {
		return fmt.Errorf("field %q is not editable on %s", e.Field, e.Kind)
	}
	if e.Value == nil {
		return nil
	}
	switch ft {
	case fieldText:
		if _, ok := e.Value.(string); !ok {
			return fmt.Errorf("field %q must be text", e.Field)
		}
	case fieldInt, fieldDecimal:
		d, err := numberValue(e.Value)
		if err != nil {
			return fmt.Errorf("field %q must be a number", e.Field)
		}
		if d.IsNegative() {
			return fmt.Errorf("field %q must not be negative", e.Field)
		}
		if ft == fieldInt && !d.Equal(d.Truncate(0)) {
			return fmt.Errorf("field %q must be a whole number", e.Field)
		}
	}
	return nil
}

func numberValue(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case decimal.Decimal:
		return n, nil
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %T", v)
}

// EditStatus is the outcome of an inline edit.
type EditStatus string

const (
	EditSuccess EditStatus = "success"
	EditFailed  EditStatus = "failed"
)

// EditResult tells the caller which value to display. On failure Value is the
// last value confirmed by the server.
type EditResult struct {
	Kind   EditKind   `json:"kind"`
	ID     string     `json:"id"`
	Field  string     `json:"field"`
	Status EditStatus `json:"status"`
	Value  any        `json:"value"`
	Error  string     `json:"error,omitempty"`
}
