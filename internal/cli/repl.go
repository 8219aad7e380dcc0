package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/vibe-storefront/internal/storefront"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

const helpText = `Commands:
  login <email> [password]   sign in (password is prompted when omitted)
  logout                     sign out
  products                   list the catalogue
  add <#|product-id> [qty]   add a product to the cart
  cart                       show the cart
  remove <#|line-id>         remove a cart line
  checkout                   check out the cart
  dismiss                    close the receipt now
  whoami                     show the header
  help                       show this help
  quit                       exit`

// REPL is the interactive storefront loop.
type REPL struct {
	shell   *storefront.Shell
	out     *Printer
	scanner *bufio.Scanner
}

func NewREPL(shell *storefront.Shell, in io.Reader, out *Printer) *REPL {
	return &REPL{
		shell:   shell,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// Run resolves the session and reads commands until quit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	r.shell.Start(ctx)
	r.out.Block(r.out.HeaderLines(r.shell.Header()))
	if r.shell.Screen() == storefront.ScreenLogin {
		r.out.Info("Please sign in: login <email> [password]")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.out.Printf("%s> ", r.shell.Screen())
		line, ok := r.readLine()
		if !ok {
			return r.scanner.Err()
		}
		if r.Execute(ctx, line) {
			return nil
		}
	}
}

func (r *REPL) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *REPL) prompt(label string) (string, bool) {
	r.out.Printf("%s: ", label)
	return r.readLine()
}

// Execute runs one command line and reports whether the loop should stop.
func (r *REPL) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		r.out.Println(helpText)
		return false
	case "login":
		r.login(ctx, args)
		return false
	}

	if r.shell.Screen() != storefront.ScreenCatalog && r.shell.Screen() != storefront.ScreenCart {
		r.out.Error("Please sign in first: login <email> [password]")
		return false
	}

	switch cmd {
	case "logout":
		r.logout(ctx)
	case "products", "catalog":
		r.products(ctx)
	case "add":
		r.add(ctx, args)
	case "cart":
		r.cart()
	case "remove", "rm":
		r.remove(ctx, args)
	case "checkout":
		r.checkout(ctx)
	case "dismiss":
		r.dismiss()
	case "whoami":
		r.out.Block(r.out.HeaderLines(r.shell.Header()))
	default:
		r.out.Error(fmt.Sprintf("Unknown command %q, type help", cmd))
	}
	return false
}

func (r *REPL) login(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.out.Error("Usage: login <email> [password]")
		return
	}
	email := args[0]
	password := strings.Join(args[1:], " ")
	if password == "" {
		var ok bool
		if password, ok = r.prompt("Password"); !ok {
			return
		}
	}

	user, err := r.shell.Login(ctx, email, password)
	if err != nil {
		r.out.Error(storefront.Message(err))
		return
	}
	r.out.Success(fmt.Sprintf("Welcome back, %s", user.Name))
	r.out.Block(r.out.HeaderLines(r.shell.Header()))
}

func (r *REPL) logout(ctx context.Context) {
	if err := r.shell.Logout(ctx); err != nil {
		r.out.Warning("Signed out locally: " + storefront.Message(err))
		return
	}
	r.out.Success("Signed out")
}

func (r *REPL) products(ctx context.Context) {
	if err := r.shell.Navigate(storefront.ScreenCatalog); err != nil {
		r.out.Error(storefront.Message(err))
		return
	}
	if err := r.shell.Catalog.Load(ctx); err != nil {
		r.out.Error(storefront.Message(err))
	}
	r.out.Block(r.out.CatalogLines(r.shell.Catalog.Cards()))
}

func (r *REPL) add(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.out.Error("Usage: add <#|product-id> [qty]")
		return
	}

	cards := r.shell.Catalog.Cards()
	if len(cards) == 0 {
		if err := r.shell.Catalog.Load(ctx); err != nil {
			r.out.Error(storefront.Message(err))
			return
		}
		cards = r.shell.Catalog.Cards()
	}

	productID := args[0]
	if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 && n <= len(cards) {
		productID = cards[n-1].Product.ID
	}

	qty := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			r.out.Error(fmt.Sprintf("Invalid quantity %q", args[1]))
			return
		}
		qty = n
	}

	if err := r.shell.Catalog.Add(ctx, productID, qty); err != nil {
		r.out.Error(storefront.Message(err))
		return
	}
	r.out.Success(fmt.Sprintf("Added %d to cart", qty))
	r.out.Block(r.out.HeaderLines(r.shell.Header()))
}

func (r *REPL) cart() {
	if err := r.shell.Navigate(storefront.ScreenCart); err != nil {
		r.out.Error(storefront.Message(err))
		return
	}
	r.out.Block(r.out.CartLines(r.shell.CartView.Summary()))
}

func (r *REPL) remove(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.out.Error("Usage: remove <#|line-id>")
		return
	}

	lineID := args[0]
	lines := r.shell.CartView.Summary().Lines
	if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 && n <= len(lines) {
		lineID = lines[n-1].ID
	}

	if err := r.shell.CartView.Remove(ctx, lineID); err != nil {
		r.out.Error(storefront.Message(err))
	} else {
		r.out.Success("Removed from cart")
	}
	r.out.Block(r.out.CartLines(r.shell.CartView.Summary()))
}

func (r *REPL) checkout(ctx context.Context) {
	if err := r.shell.Navigate(storefront.ScreenCart); err != nil {
		r.out.Error(storefront.Message(err))
		return
	}
	flow, err := r.shell.CartView.StartCheckout()
	if err != nil {
		r.out.Error(storefront.Message(err))
		return
	}

	name, ok := r.prompt("Name")
	if !ok {
		flow.Teardown()
		return
	}
	email, ok := r.prompt("Email")
	if !ok {
		flow.Teardown()
		return
	}
	_ = flow.SetName(name)
	_ = flow.SetEmail(email)

	bar := NewCountdownBar(flow.CountdownFrom())
	flow.OnTick(func(remaining int) {
		r.out.Println(bar.Render(remaining))
	})
	flow.OnClose(func(*shopapi.Receipt) {
		r.out.Info("Receipt closed. Continue shopping with `products`.")
	})

	receipt, err := flow.Submit(ctx)
	if err != nil {
		var valErr *storefront.ValidationError
		if errors.As(err, &valErr) {
			r.out.Error(valErr.Error())
		} else {
			r.out.Error("Checkout failed: " + storefront.Message(err))
		}
		flow.Teardown()
		return
	}

	lines := r.out.ReceiptLines(receipt)
	lines = append(lines, bar.Render(flow.CountdownFrom()), "Type dismiss to continue shopping.")
	r.out.Block(lines)
}

func (r *REPL) dismiss() {
	flow := r.shell.CartView.ActiveFlow()
	if flow == nil || flow.Dismiss() != nil {
		r.out.Info("No receipt to dismiss")
	}
}
