package storefront

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// ReceiptSource turns the agreed cart into a receipt.
type ReceiptSource interface {
	CreateReceipt(ctx context.Context, cart *shopapi.Cart, buyer shopapi.Buyer) (*shopapi.Receipt, error)
}

// ServerReceipts checks out against the backend and returns its receipt verbatim.
type ServerReceipts struct {
	API CheckoutAPI
}

func (s ServerReceipts) CreateReceipt(ctx context.Context, cart *shopapi.Cart, buyer shopapi.Buyer) (*shopapi.Receipt, error) {
	receipt, err := s.API.Checkout(ctx, shopapi.NewCheckoutRequest(cart, &buyer))
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("checkout: %w", shopapi.ErrEmptyData)
	}
	return receipt, nil
}

// LocalReceipts builds the receipt from the cart snapshot without telling the
// backend. Nothing is recorded server side, so it is meant for demos only.
type LocalReceipts struct {
	// Delay simulates processing time. Zero means none.
	Delay time.Duration
	Now   func() time.Time
}

func (l LocalReceipts) CreateReceipt(ctx context.Context, cart *shopapi.Cart, _ shopapi.Buyer) (*shopapi.Receipt, error) {
	if l.Delay > 0 {
		timer := time.NewTimer(l.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	ts := now()

	items := make([]shopapi.ReceiptItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, shopapi.ReceiptItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			ItemTotal: line.LineTotal(),
		})
	}

	return &shopapi.Receipt{
		ReceiptID: localReceiptID(ts),
		UserID:    cart.UserID,
		Items:     items,
		Total:     cart.Total,
		Timestamp: ts,
		Status:    shopapi.StatusCompleted,
	}, nil
}

// localReceiptID formats RCP-<unix ms>-<9 base36 chars>.
func localReceiptID(ts time.Time) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(suffix) > 9 {
		suffix = suffix[len(suffix)-9:]
	} else {
		suffix = strings.Repeat("0", 9-len(suffix)) + suffix
	}
	return fmt.Sprintf("RCP-%d-%s", ts.UnixMilli(), suffix)
}
