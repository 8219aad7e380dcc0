package cli

import (
	"fmt"
	"strings"

	"github.com/ikkim/vibe-storefront/internal/storefront"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// HeaderLines renders the top bar.
func (p *Printer) HeaderLines(h storefront.Header) []string {
	if !h.SignedIn {
		return []string{p.Colorize("Vibe Commerce", ColorBold) + "  (not signed in)"}
	}
	badge := fmt.Sprintf("Cart (%d)", h.CartCount)
	return []string{fmt.Sprintf("%s  Hi, %s  %s", p.Colorize("Vibe Commerce", ColorBold), h.UserName, p.Colorize(badge, ColorCyan))}
}

// CatalogLines renders the product cards with their index for `add`.
func (p *Printer) CatalogLines(cards []storefront.ProductCard) []string {
	if len(cards) == 0 {
		return []string{"No products available."}
	}

	lines := []string{p.Colorize("Products", ColorBold)}
	for i, card := range cards {
		product := card.Product
		lines = append(lines, fmt.Sprintf("%2d. %s  %s  Stock: %d  [%s]",
			i+1, product.Name, money(product.Price), product.StockCount(), product.ID))
		if product.Description != "" {
			lines = append(lines, "    "+product.Description)
		}
		if product.Image == "" {
			lines = append(lines, "    No Image")
		} else {
			lines = append(lines, "    Image: "+product.Image)
		}

		choices := card.QuantityChoices()
		switch {
		case len(choices) == 0:
			lines = append(lines, "    "+p.Colorize("Out of Stock", ColorRed))
		case card.Pending:
			lines = append(lines, "    Adding...")
		default:
			lines = append(lines, fmt.Sprintf("    Qty: 1-%d", choices[len(choices)-1]))
		}
	}
	return lines
}

// CartLines renders the cart summary with both totals.
func (p *Printer) CartLines(s storefront.CartSummary) []string {
	if s.Empty() {
		return []string{p.Colorize("Shopping Cart", ColorBold), "Your cart is empty."}
	}

	lines := []string{
		p.Colorize("Shopping Cart", ColorBold),
		fmt.Sprintf("%d item(s) in cart", s.LineCount()),
	}
	for i, line := range s.Lines {
		row := fmt.Sprintf("%2d. %s  %s x %d = %s  [%s]",
			i+1, line.Name, money(line.Price), line.Quantity, money(line.LineTotal), line.ID)
		if line.Pending {
			row += "  removing..."
		}
		lines = append(lines, row)
	}
	lines = append(lines,
		"Subtotal: "+money(s.Subtotal),
		"Total:    "+p.Colorize(money(s.Total), ColorGreen),
	)
	if diff, off := s.Discrepancy(); off {
		lines = append(lines, p.Colorize(fmt.Sprintf("Warning: the shop total differs from the line totals by %s", money(diff)), ColorYellow))
	}
	return lines
}

// ReceiptLines renders a confirmed order.
func (p *Printer) ReceiptLines(r *shopapi.Receipt) []string {
	lines := []string{
		p.Colorize("Order Confirmed!", ColorGreen),
		"Receipt ID: " + r.ReceiptID,
		"Date:       " + r.Timestamp.Local().Format("2006-01-02 15:04:05"),
		"Status:     " + capitalize(r.Status),
		"Items:",
	}
	for _, item := range r.Items {
		lines = append(lines, fmt.Sprintf("  %s  %s x %d = %s", item.Name, money(item.Price), item.Quantity, money(item.ItemTotal)))
	}
	lines = append(lines, "Total: "+p.Colorize(money(r.Total), ColorBold))
	return lines
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
