package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/models"
	"github.com/example/chefdesk/internal/orderstore"
	"github.com/example/chefdesk/internal/services"
	"github.com/example/chefdesk/internal/session"
	"github.com/example/chefdesk/internal/status"
)

// console is the interactive staff UI: a line-based command loop over
// the order feed. It supplies the confirmation and notification
// capabilities the transition controller expects.
type console struct {
	in  *bufio.Scanner
	out io.Writer

	store      *orderstore.Store
	auth       *services.AuthService
	categories *services.CategoryService
	payments   *services.PaymentService
	sessions   *session.Store
	ctrl       *status.Controller
	log        *zap.Logger

	filters models.Filters
	snap    orderstore.Snapshot
}

func newConsole(in io.Reader, out io.Writer, store *orderstore.Store, auth *services.AuthService,
	orders *services.OrderService, categories *services.CategoryService,
	payments *services.PaymentService, sessions *session.Store, log *zap.Logger) *console {

	c := &console{
		in:         bufio.NewScanner(in),
		out:        out,
		store:      store,
		auth:       auth,
		categories: categories,
		payments:   payments,
		sessions:   sessions,
		log:        log,
	}
	c.ctrl = status.NewController(store, orders, c, c, log)
	return c
}

// Confirm implements status.Confirmer with a y/N prompt.
func (c *console) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	if !c.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return answer == "y" || answer == "yes"
}

// Notify implements status.Notifier.
func (c *console) Notify(title, message string) {
	fmt.Fprintf(c.out, "! %s: %s\n", title, message)
}

func (c *console) run(ctx context.Context) error {
	if s, err := c.sessions.Current(); err == nil {
		fmt.Fprintf(c.out, "Logged in as %s\n", s.StaffName)
		c.reload(ctx)
	} else {
		fmt.Fprintln(c.out, "Not logged in. Use: login <email> <password>")
	}

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}

		fields := strings.Fields(c.in.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "login":
			c.login(ctx, fields[1:])
		case "logout":
			c.sessions.Logout()
			fmt.Fprintln(c.out, "Logged out.")
		case "orders":
			c.reload(ctx)
		case "more":
			c.more(ctx)
		case "refresh":
			c.report(c.store.Refresh(ctx))
			c.render()
		case "filter":
			c.filter(ctx, fields[1:])
		case "clear":
			c.filters = models.Filters{}
			c.reload(ctx)
		case "categories":
			c.listCategories(ctx)
		case "advance", "cancel", "uncollect":
			c.mutate(ctx, fields)
		case "paid":
			c.markPaid(ctx, fields[1:])
		case "help":
			c.help()
		default:
			fmt.Fprintf(c.out, "Unknown command %q. Try: help\n", fields[0])
		}
	}
}

func (c *console) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: login <email> <password>")
		return
	}

	result, err := c.auth.Login(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fmt.Fprintln(c.out, "Invalid email or password.")
			return
		}
		c.report(err)
		return
	}

	if err := c.sessions.Save(result.Token, result.Name); err != nil {
		c.report(err)
		return
	}
	fmt.Fprintf(c.out, "Welcome, %s\n", result.Name)
	c.reload(ctx)
}

// reload issues exactly one wholesale load for the current criteria.
func (c *console) reload(ctx context.Context) {
	c.report(c.store.Load(ctx, c.filters))
	c.render()
}

func (c *console) more(ctx context.Context) {
	if !c.store.Snapshot().HasMore() {
		fmt.Fprintln(c.out, "All orders loaded.")
		return
	}
	c.report(c.store.LoadMore(ctx))
	c.render()
}

// filter mutates criteria from key=value arguments, then triggers one
// reload with the page reset.
func (c *console) filter(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: filter search=<q> status=<s> category=<id> completed canceled paid from=<date> to=<date>")
		return
	}

	yes := true
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		switch key {
		case "search":
			c.filters.Search = value
		case "status":
			st := models.OrderStatus(value)
			if !st.Valid() {
				fmt.Fprintf(c.out, "Unknown status %q\n", value)
				return
			}
			c.filters.OrderStatus = st
		case "category":
			c.filters.FoodCategory = value
		case "completed":
			c.filters.OrderCompleted = &yes
		case "canceled":
			c.filters.OrderCanceled = &yes
		case "paid":
			c.filters.PaymentSuccess = &yes
		case "from", "to":
			day, err := time.Parse("2006-01-02", value)
			if err != nil {
				fmt.Fprintf(c.out, "Bad date %q, want YYYY-MM-DD\n", value)
				return
			}
			if key == "from" {
				c.filters.StartDate = &day
			} else {
				end := day.Add(24*time.Hour - time.Nanosecond)
				c.filters.EndDate = &end
			}
		default:
			fmt.Fprintf(c.out, "Unknown filter %q\n", key)
			return
		}
	}

	if !c.filters.DatesValid() {
		fmt.Fprintln(c.out, "End date must not precede start date.")
		return
	}
	c.reload(ctx)
}

func (c *console) listCategories(ctx context.Context) {
	categories, err := c.categories.FetchCategories(ctx)
	if err != nil {
		c.report(err)
		return
	}
	for _, cat := range categories {
		fmt.Fprintf(c.out, "  %s  %s\n", cat.ID, cat.Name)
	}
}

// mutate resolves "<cmd> <group#> <item#>" against the last rendered
// snapshot and routes to the controller.
func (c *console) mutate(ctx context.Context, fields []string) {
	if len(fields) != 3 {
		fmt.Fprintf(c.out, "Usage: %s <group#> <item#>\n", fields[0])
		return
	}

	item, ok := c.itemAt(fields[1], fields[2])
	if !ok {
		return
	}

	var err error
	switch fields[0] {
	case "advance":
		err = c.ctrl.Advance(ctx, item)
	case "cancel":
		err = c.ctrl.Cancel(ctx, item)
	case "uncollect":
		err = c.ctrl.NotCollected(ctx, item)
	}

	if errors.Is(err, status.ErrNoTransition) {
		fmt.Fprintf(c.out, "Order %s cannot move from %s that way.\n", item.OrderID, item.Status)
		return
	}
	c.report(err)
	c.render()
}

func (c *console) markPaid(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: paid <group#>")
		return
	}
	gi, err := strconv.Atoi(args[0])
	if err != nil || gi < 1 || gi > len(c.snap.Docs) {
		fmt.Fprintln(c.out, "No such group.")
		return
	}

	group := c.snap.Docs[gi-1]
	if err := c.payments.UpdatePaymentStatus(ctx, group.ID, true); err != nil {
		c.report(err)
		return
	}
	c.report(c.store.Refresh(ctx))
	c.render()
}

func (c *console) itemAt(groupArg, itemArg string) (models.OrderItem, bool) {
	gi, err1 := strconv.Atoi(groupArg)
	ii, err2 := strconv.Atoi(itemArg)
	if err1 != nil || err2 != nil || gi < 1 || gi > len(c.snap.Docs) {
		fmt.Fprintln(c.out, "No such group.")
		return models.OrderItem{}, false
	}
	group := c.snap.Docs[gi-1]
	if ii < 1 || ii > len(group.Items) {
		fmt.Fprintln(c.out, "No such item.")
		return models.OrderItem{}, false
	}
	return group.Items[ii-1], true
}

func (c *console) render() {
	c.snap = c.store.Snapshot()

	if len(c.snap.Docs) == 0 {
		if c.snap.Filters.Active() || c.snap.Filters.Search != "" {
			fmt.Fprintln(c.out, "No orders match the current filters.")
		} else {
			fmt.Fprintln(c.out, "No orders yet.")
		}
		return
	}

	for gi, group := range c.snap.Docs {
		fmt.Fprintf(c.out, "[%d] Order %s  %s\n", gi+1, group.OrderID,
			group.CreatedAt.Format("Jan 2 15:04"))
		for ii, item := range group.Items {
			busy := ""
			if c.store.IsUpdating(item.ID) {
				busy = "  (updating...)"
			}
			fmt.Fprintf(c.out, "   (%d) %s x%d  %d  [%s]%s\n", ii+1,
				item.FoodDetails.Name, item.Count, item.TotalPrice(), item.Status, busy)
		}
	}
	fmt.Fprintf(c.out, "Showing %d of %d orders", len(c.snap.Docs), c.snap.TotalDocs)
	if c.snap.HasMore() {
		fmt.Fprint(c.out, "  (more available)")
	}
	fmt.Fprintln(c.out)
}

// report surfaces operation failures without tearing the loop down.
func (c *console) report(err error) {
	if err == nil {
		return
	}

	var loadErr *orderstore.LoadError
	var srvErr *services.ServerError
	switch {
	case errors.As(err, &loadErr):
		fmt.Fprintln(c.out, "Unable to load orders. Previous results kept; try: refresh")
	case errors.As(err, &srvErr):
		fmt.Fprintf(c.out, "Server rejected the request: %s\n", srvErr.Message)
	default:
		fmt.Fprintf(c.out, "Request failed: %v\n", err)
	}
	c.log.Debug("command failed", zap.Error(err))
}

func (c *console) help() {
	fmt.Fprintln(c.out, `Commands:
  login <email> <password>   sign in
  logout                     sign out
  orders                     load the feed
  more                       load the next page
  refresh                    reload the current page window
  filter key=value ...       narrow the feed (search, status, category,
                             completed, canceled, paid, from, to)
  clear                      reset filters
  categories                 list food categories
  advance <g> <i>            move an item to its next status
  cancel <g> <i>             cancel an item
  uncollect <g> <i>          mark a collected item as not collected
  paid <g>                   mark a group's payment successful
  quit`)
}
