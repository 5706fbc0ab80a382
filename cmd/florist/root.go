package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/config"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository/file"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/logger"
)

// localCart names the cart kept in the data directory while signed out.
const localCart = "local"

const sessionTTL = 7 * 24 * time.Hour

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitCrash = 2
)

// cli holds the flags and the services built from them. Services are wired
// in PersistentPreRunE so every subcommand sees the same profile.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	profilePath string
	apiURL      string
	dataDir     string
	timeout     time.Duration
	verbose     bool

	profile     config.Profile
	logger      *slog.Logger
	sessions    *service.SessionService
	sessionFile string
	carts       *service.CartService
	catalog     *service.CatalogService
	checkout    *service.CheckoutService
	orders      *service.OrderService
	assortment  *service.AssortmentService
	suggestions *service.SuggestionService
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, out: out, errOut: errOut}
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := newCLI(in, out, errOut)
	root := c.rootCmd()
	root.SetArgs(args)
	return c.execute(ctx, root)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "florist",
		Short: "Wholesale flower marketplace client",
		Long: `florist talks to the flower marketplace API.

Browse the catalog, collect offers into a cart grouped by supplier and
check out one supplier at a time. Supplier accounts can review and edit
their assortment and the AI suggestions for it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.profilePath, "config", "", "profile path (default "+config.DefaultProfilePath()+")")
	pf.StringVar(&c.apiURL, "api-url", "", "marketplace API base URL")
	pf.StringVar(&c.dataDir, "data-dir", "", "directory for the session and cart files")
	pf.DurationVar(&c.timeout, "timeout", 0, "marketplace request timeout")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.meCmd(),
		c.offersCmd(),
		c.browseCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.assortmentCmd(),
		c.suggestionsCmd(),
		c.configCmd(),
	)
	return root
}

// setup loads the profile, applies flag overrides and wires the services.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path := c.profilePath
	if path == "" {
		path = config.DefaultProfilePath()
	}
	p, err := config.LoadProfile(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		p.APIURL = c.apiURL
	}
	if flags.Changed("data-dir") {
		p.DataDir = c.dataDir
	}
	if flags.Changed("timeout") {
		p.Timeout = c.timeout
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.profile = p

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.logger = logger.NewText(level, c.errOut)
	c.wire()
	return nil
}

func (c *cli) wire() {
	api := marketplace.NewDefaultClient(c.profile.APIURL, c.profile.Timeout, c.logger)
	sessionRepo := file.NewSessionRepository(c.profile.DataDir)
	events := event.NewProducer(nil, c.logger)

	c.sessionFile = sessionRepo.Path()
	c.sessions = service.NewSessionService(api, sessionRepo, c.logger, sessionTTL)
	c.carts = service.NewCartService(file.NewCartRepository(c.profile.DataDir), events, c.logger)
	c.catalog = service.NewCatalogService(api, c.logger)
	c.checkout = service.NewCheckoutService(c.carts, api, nil, events, c.logger)
	c.orders = service.NewOrderService(api)
	c.assortment = service.NewAssortmentService(api, c.logger)
	c.suggestions = service.NewSuggestionService(api, c.logger)
}

// execute runs root and turns its outcome into an exit code. A panic signs
// the user out so a half-written session cannot be reused.
func (c *cli) execute(ctx context.Context, root *cobra.Command) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c.crashed(r)
			code = exitCrash
		}
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(c.errOut, "Error:", errorText(err))
		return exitError
	}
	return exitOK
}

func (c *cli) crashed(r any) {
	if c.logger != nil {
		c.logger.Error("unexpected failure",
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
	}

	path := c.sessionFile
	if path == "" {
		path = filepath.Join(config.DefaultProfile().DataDir, file.SessionFile)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(c.errOut, "Error: could not remove session:", err)
	}
	fmt.Fprintln(c.errOut, "Error: florist stopped unexpectedly and signed you out. Please sign in again.")
}

// errorText shows AppErrors the way the storefront would and everything
// else, such as flag errors, verbatim.
func errorText(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.UserMessage(err)
	}
	return err.Error()
}

// principal is the current session, if any, as a storefront principal.
func (c *cli) principal(ctx context.Context) (service.Principal, *domain.Session, error) {
	sess, err := c.sessions.Get(ctx, file.CurrentSession)
	if err != nil {
		return service.Principal{}, nil, err
	}
	p := service.Principal{OwnerID: domain.OwnerID(sess.BuyerID(), localCart)}
	if sess != nil {
		p.BuyerID = sess.BuyerID()
		p.Tokens = c.sessions.Tokens(sess)
	}
	return p, sess, nil
}

// signedIn is principal for commands that need an account.
func (c *cli) signedIn(ctx context.Context) (service.Principal, *domain.Session, error) {
	p, sess, err := c.principal(ctx)
	if err != nil {
		return p, nil, err
	}
	if sess == nil {
		return p, nil, apperrors.SignInRequired()
	}
	return p, sess, nil
}

// supplierScope is the supplier a seller command acts on: the account's own
// supplier, or the --supplier flag for admins.
func supplierScope(sess *domain.Session, flag string) (string, error) {
	if sess.User != nil && sess.User.Role == domain.RoleAdmin {
		return flag, nil
	}
	if sess.User == nil || sess.User.SupplierID == nil || *sess.User.SupplierID == "" {
		return "", apperrors.Forbidden("account is not linked to a supplier")
	}
	return *sess.User.SupplierID, nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
