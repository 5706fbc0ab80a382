package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// DefaultSearchDebounce is how long the search input must be idle before a
// query is sent.
const DefaultSearchDebounce = 300 * time.Millisecond

// Searcher runs catalog queries. *service.CatalogService implements it.
type Searcher interface {
	Search(ctx context.Context, tokens marketplace.Tokens, f domain.OfferFilter) (*domain.OfferPage, error)
}

// CartAdder puts a line into a supplier group. *service.CartService
// implements it.
type CartAdder interface {
	AddToCart(ctx context.Context, ownerID, supplierID, supplierName string, line domain.CartLine) (*domain.Cart, error)
}

// CatalogConfig wires the browser to its services.
type CatalogConfig struct {
	Search  Searcher
	Cart    CartAdder
	Tokens  marketplace.Tokens
	OwnerID string
	// Filter is the starting query; its Q seeds the search input.
	Filter   domain.OfferFilter
	Debounce time.Duration
	// Timeout bounds each marketplace call.
	Timeout time.Duration
}

type searchTickMsg struct{ seq int }

type offersMsg struct {
	seq  int
	page *domain.OfferPage
	err  error
}

type addedMsg struct {
	name string
	qty  int
	cart *domain.Cart
	err  error
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Add      key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		NextPage: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page")),
		Add:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add to cart")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextPage, k.PrevPage, k.Add, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// CatalogModel is the interactive catalog browser. Typing edits the free-text
// query; a search is sent once the input has been idle for the debounce
// interval. Every query carries a sequence number and only the response to
// the latest one is shown.
type CatalogModel struct {
	cfg    CatalogConfig
	keys   keyMap
	help   help.Model
	input  textinput.Model
	styles Styles

	filter  domain.OfferFilter
	seq     int
	loading bool
	page    *domain.OfferPage
	err     error
	cursor  int
	status  string
	cart    *domain.Cart
}

// NewCatalogModel creates the browser. The first page is requested by Init.
func NewCatalogModel(cfg CatalogConfig) CatalogModel {
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Tokens == nil {
		cfg.Tokens = marketplace.Anonymous
	}
	if cfg.Filter.Limit <= 0 {
		cfg.Filter = cfg.Filter.WithLimit(domain.DefaultOfferLimit)
	}

	ti := textinput.New()
	ti.Placeholder = "Search roses, peonies, greenery..."
	ti.Prompt = "Search: "
	ti.CharLimit = 120
	if cfg.Filter.Q != nil {
		ti.SetValue(*cfg.Filter.Q)
	}
	ti.Focus()

	return CatalogModel{
		cfg:     cfg,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   ti,
		styles:  DefaultStyles(),
		filter:  cfg.Filter,
		loading: true,
	}
}

func (m CatalogModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetch())
}

func (m CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-len(m.input.Prompt)-2)
		return m, nil

	case searchTickMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case offersMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.page = msg.page
		m.cursor = min(m.cursor, max(0, len(m.offers())-1))
		return m, nil

	case addedMsg:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.cart = msg.cart
		m.status = fmt.Sprintf("Added %d × %s", msg.qty, msg.name)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.offers())-1 {
				m.cursor++
			}
			return m, nil
		case key.Matches(msg, m.keys.NextPage):
			if m.page == nil || m.filter.Offset+m.filter.Limit >= m.page.Total {
				return m, nil
			}
			return m.turnPage(m.filter.NextPage())
		case key.Matches(msg, m.keys.PrevPage):
			if m.filter.Offset == 0 {
				return m, nil
			}
			return m.turnPage(m.filter.PrevPage())
		case key.Matches(msg, m.keys.Add):
			return m, m.addSelected()
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.queryChanged())
}

// queryChanged starts a new debounce window for the current input.
func (m *CatalogModel) queryChanged() tea.Cmd {
	m.seq++
	m.cursor = 0
	m.filter = m.filter.WithQuery(strings.TrimSpace(m.input.Value()))
	if m.cfg.Debounce == 0 {
		m.loading = true
		return m.fetch()
	}
	seq := m.seq
	return tea.Tick(m.cfg.Debounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (m CatalogModel) turnPage(f domain.OfferFilter) (tea.Model, tea.Cmd) {
	m.seq++
	m.filter = f
	m.cursor = 0
	m.loading = true
	return m, m.fetch()
}

// fetch queries the catalog with the current filter, tagged with the current
// sequence number.
func (m CatalogModel) fetch() tea.Cmd {
	seq, f, cfg := m.seq, m.filter, m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		page, err := cfg.Search.Search(ctx, cfg.Tokens, f)
		return offersMsg{seq: seq, page: page, err: err}
	}
}

func (m CatalogModel) addSelected() tea.Cmd {
	offer, ok := m.Selected()
	if !ok || m.cfg.Cart == nil {
		return nil
	}
	qty := 1
	if offer.PackSize != nil && *offer.PackSize > 0 {
		qty = *offer.PackSize
	}
	cfg := m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		cart, err := cfg.Cart.AddToCart(ctx, cfg.OwnerID, offer.SupplierID, offer.SupplierName, offer.CartLine(qty))
		return addedMsg{name: offer.Name, qty: qty, cart: cart, err: err}
	}
}

func (m CatalogModel) offers() []domain.Offer {
	if m.page == nil {
		return nil
	}
	return m.page.Offers
}

// Selected returns the offer under the cursor.
func (m CatalogModel) Selected() (domain.Offer, bool) {
	offers := m.offers()
	if m.cursor < 0 || m.cursor >= len(offers) {
		return domain.Offer{}, false
	}
	return offers[m.cursor], true
}

// Filter is the filter of the latest query.
func (m CatalogModel) Filter() domain.OfferFilter { return m.filter }

// Cart is the cart after the last successful add, nil before.
func (m CatalogModel) Cart() *domain.Cart { return m.cart }

func (m CatalogModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Flower catalog"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	offers := m.offers()
	switch {
	case m.loading && len(offers) == 0:
		b.WriteString(m.styles.Muted.Render("Searching..."))
		b.WriteString("\n")
	case len(offers) == 0 && m.err == nil:
		b.WriteString(m.styles.Muted.Render("No offers match your search."))
		b.WriteString("\n")
	}

	for i, o := range offers {
		line := offerLine(o)
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(m.styles.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.page != nil && m.page.Total > 0 {
		limit := max(1, m.filter.Limit)
		pages := (m.page.Total + limit - 1) / limit
		current := m.filter.Offset/limit + 1
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Page %d of %d · %d offers", current, pages, m.page.Total)))
		if m.loading {
			b.WriteString(m.styles.Muted.Render(" · searching..."))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(m.styles.Error.Render(apperrors.UserMessage(m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func offerLine(o domain.Offer) string {
	var details []string
	if o.LengthCM != nil {
		details = append(details, fmt.Sprintf("%d cm", *o.LengthCM))
	}
	if o.Color != "" {
		details = append(details, o.Color)
	}
	if o.OriginCountry != "" {
		details = append(details, o.OriginCountry)
	}
	stock := "stock n/a"
	if o.Stock != nil {
		stock = fmt.Sprintf("stock %d", *o.Stock)
	}
	line := fmt.Sprintf("%-32s %10s  %-20s %s", o.Name, o.Price.StringFixed(2), o.SupplierName, stock)
	if len(details) > 0 {
		line += "  (" + strings.Join(details, ", ") + ")"
	}
	return line
}

// RunCatalog runs the browser until the user quits or ctx is canceled, and
// returns the final model state.
func RunCatalog(ctx context.Context, cfg CatalogConfig, opts ...tea.ProgramOption) (CatalogModel, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(NewCatalogModel(cfg), opts...).Run()
	if m, ok := final.(CatalogModel); ok {
		return m, err
	}
	return CatalogModel{}, err
}
