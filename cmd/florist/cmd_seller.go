package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
)

var errEditNotSaved = errors.New("edit was not saved")

func (c *cli) assortmentCmd() *cobra.Command {
	var (
		search   string
		selects  []string
		mins     []string
		maxs     []string
		sortBy   string
		supplier string
		limit    int
		page     int
	)
	cmd := &cobra.Command{
		Use:   "assortment",
		Short: "Show the supplier's assortment, one row per variant",
		Long: `Shows one page of the supplier's items flattened to one row per variant.

  --select color=red --select color=white   keep rows whose color is red or white
  --min price=100 --max length_cm=70        numeric bounds, inclusive
  --sort price | --sort -price              ascending or descending`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, sess, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			supplierID, err := supplierScope(sess, supplier)
			if err != nil {
				return err
			}
			q, err := assortmentQuery(search, selects, mins, maxs, sortBy)
			if err != nil {
				return err
			}
			q.SupplierID = supplierID
			q.Limit = limit
			q.Offset = (max(page, 1) - 1) * limit

			view, err := c.assortment.List(cmd.Context(), p.Tokens, q)
			if err != nil {
				return err
			}
			c.printAssortment(view)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&search, "query", "q", "", "search item names")
	fs.StringArrayVar(&selects, "select", nil, "column=value multi-select filter (repeatable)")
	fs.StringArrayVar(&mins, "min", nil, "column=number lower bound (repeatable)")
	fs.StringArrayVar(&maxs, "max", nil, "column=number upper bound (repeatable)")
	fs.StringVar(&sortBy, "sort", "", "sort column, prefix with - for descending")
	fs.StringVar(&supplier, "supplier", "", "supplier ID (admins only)")
	fs.IntVar(&limit, "limit", 50, "items per page")
	fs.IntVar(&page, "page", 1, "page number")

	cmd.AddCommand(c.assortmentEditCmd())
	return cmd
}

func splitPair(flag, s string) (domain.Column, string, error) {
	col, val, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return "", "", fmt.Errorf("--%s wants column=value, got %q", flag, s)
	}
	return domain.Column(col), val, nil
}

func assortmentQuery(search string, selects, mins, maxs []string, sortBy string) (service.AssortmentQuery, error) {
	q := service.AssortmentQuery{Filter: domain.AssortmentFilter{
		Search:  search,
		Selects: map[domain.Column][]string{},
		Ranges:  map[domain.Column]domain.Range{},
	}}

	for _, s := range selects {
		col, val, err := splitPair("select", s)
		if err != nil {
			return q, err
		}
		if !col.Categorical() {
			return q, fmt.Errorf("--select: %q is not a multi-select column", col)
		}
		q.Filter.Selects[col] = append(q.Filter.Selects[col], val)
	}

	bound := func(flag string, pairs []string, set func(*domain.Range, *decimal.Decimal)) error {
		for _, s := range pairs {
			col, val, err := splitPair(flag, s)
			if err != nil {
				return err
			}
			if !col.Numeric() {
				return fmt.Errorf("--%s: %q is not a numeric column", flag, col)
			}
			d, err := decimal.NewFromString(val)
			if err != nil {
				return fmt.Errorf("--%s %s: must be a number", flag, col)
			}
			rg := q.Filter.Ranges[col]
			set(&rg, &d)
			q.Filter.Ranges[col] = rg
		}
		return nil
	}
	if err := bound("min", mins, func(rg *domain.Range, d *decimal.Decimal) { rg.Min = d }); err != nil {
		return q, err
	}
	if err := bound("max", maxs, func(rg *domain.Range, d *decimal.Decimal) { rg.Max = d }); err != nil {
		return q, err
	}

	sort, err := domain.ParseSort(sortBy)
	if err != nil {
		return q, err
	}
	q.Sort = sort
	return q, nil
}

func optDec(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func (c *cli) printAssortment(v *service.AssortmentView) {
	if len(v.Rows) == 0 {
		c.printf("No rows match.\n")
	} else {
		t := table.New().Headers("ITEM", "VARIANT", "NAME", "TYPE", "COLOR", "ORIGIN", "LENGTH", "PACK", "PRICE", "STOCK", "STATUS")
		for _, r := range v.Rows {
			t.Row(r.ItemID, r.VariantID, r.Name, r.ProductType, r.Color, r.OriginCountry,
				optInt(r.LengthCM, ""), optInt(r.PackSize, ""), optDec(r.Price), optInt(r.Stock, ""), r.Status)
		}
		c.printf("%s\n", t.Render())
	}
	c.printf("%d rows from %d of %d items\n", len(v.Rows), v.Items, v.Total)
}

func (c *cli) assortmentEditCmd() *cobra.Command {
	var (
		previous string
		text     bool
	)
	cmd := &cobra.Command{
		Use:   "edit <item|variant> <id> <field> <value>",
		Short: "Change one field of an item or variant",
		Long: `Saves one field. Numbers are sent as numbers unless --text is given, and
"null" clears the field. When the save fails the current value is read back
and shown.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			edit := domain.FieldEdit{
				Kind:  domain.EditKind(args[0]),
				ID:    args[1],
				Field: args[2],
				Value: editValue(args[3], text),
			}
			if cmd.Flags().Changed("previous") {
				edit.Previous = editValue(previous, text)
			}

			res, err := c.assortment.EditField(cmd.Context(), p.Tokens, edit)
			if err != nil {
				return err
			}
			if res.Status == domain.EditSuccess {
				c.printf("Saved %s %s: %s = %s\n", res.Kind, res.ID, res.Field, showValue(res.Value))
				return nil
			}
			c.printf("Not saved: %s\n%s %s: %s = %s\n", res.Error, res.Kind, res.ID, res.Field, showValue(res.Value))
			return errEditNotSaved
		},
	}
	cmd.Flags().StringVar(&previous, "previous", "", "value to show if the save and the re-read both fail")
	cmd.Flags().BoolVar(&text, "text", false, "send the value as text even if it looks like a number")
	return cmd
}

// editValue turns a command-line value into what the API expects.
func editValue(s string, text bool) any {
	switch {
	case s == "null":
		return nil
	case text:
		return s
	}
	if _, err := decimal.NewFromString(s); err == nil {
		return json.Number(s)
	}
	return s
}

func showValue(v any) string {
	if v == nil {
		return "(empty)"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case json.Number:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (c *cli) suggestionsCmd() *cobra.Command {
	var (
		supplier      string
		minConfidence float64
		limit         int
	)
	filter := func() domain.SuggestionFilter {
		return domain.SuggestionFilter{SupplierID: supplier, MinConfidence: minConfidence, Limit: limit}
	}

	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List pending AI suggestions, most confident first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, sess, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			if supplier, err = supplierScope(sess, supplier); err != nil {
				return err
			}
			list, total, err := c.suggestions.Pending(cmd.Context(), p.Tokens, filter())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				c.printf("No pending suggestions.\n")
				return nil
			}
			t := table.New().Headers("ID", "TARGET", "FIELD", "CURRENT", "SUGGESTED", "CONFIDENCE")
			for _, s := range list {
				t.Row(s.ID, string(s.TargetKind)+" "+s.TargetID, s.Field, showValue(s.CurrentValue), showValue(s.SuggestedValue),
					strconv.FormatFloat(s.Confidence*100, 'f', 0, 64)+"%")
			}
			c.printf("%s\n%d of %d pending\n", t.Render(), len(list), total)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&supplier, "supplier", "", "supplier ID (admins only)")
	pf.Float64Var(&minConfidence, "min-confidence", 0, "hide suggestions below this confidence, 0..1")
	pf.IntVar(&limit, "limit", 50, "suggestions to fetch")

	accept := &cobra.Command{
		Use:   "accept <suggestion-id>",
		Short: "Apply a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.suggestions.Accept(cmd.Context(), p.Tokens, args[0])
			if err != nil {
				return err
			}
			return c.printReview(res)
		},
	}

	var reason string
	reject := &cobra.Command{
		Use:   "reject <suggestion-id>",
		Short: "Dismiss a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.suggestions.Reject(cmd.Context(), p.Tokens, args[0], reason)
			if err != nil {
				return err
			}
			return c.printReview(res)
		},
	}
	reject.Flags().StringVar(&reason, "reason", "", "why the suggestion is wrong")

	acceptAbove := &cobra.Command{
		Use:   "accept-above <threshold>",
		Short: "Accept every pending suggestion at or above a confidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("threshold must be a number between 0 and 1, got %q", args[0])
			}
			p, sess, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			if supplier, err = supplierScope(sess, supplier); err != nil {
				return err
			}
			results, err := c.suggestions.AcceptAbove(cmd.Context(), p.Tokens, filter(), threshold)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				c.printf("No suggestions at or above %s.\n", args[0])
				return nil
			}
			failed := 0
			for _, r := range results {
				if !r.OK {
					failed++
				}
				_ = c.printReview(r)
			}
			c.printf("%d accepted, %d failed\n", len(results)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d suggestions were not accepted", failed)
			}
			return nil
		},
	}

	cmd.AddCommand(accept, reject, acceptAbove)
	return cmd
}

func (c *cli) printReview(r domain.ReviewResult) error {
	if r.OK {
		c.printf("%s %s: %s\n", r.SuggestionID, r.Action, r.Status)
		return nil
	}
	c.printf("%s %s failed: %s\n", r.SuggestionID, r.Action, r.Error)
	return fmt.Errorf("suggestion %s was not %s", r.SuggestionID, reviewPast(r.Action))
}

func reviewPast(a domain.ReviewAction) string {
	if a == domain.ReviewReject {
		return "rejected"
	}
	return "accepted"
}
