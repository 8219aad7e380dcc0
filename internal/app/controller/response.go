package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/vibe-storefront/internal/app/model"
	apperrors "github.com/ikkim/vibe-storefront/internal/errors"
	"github.com/shopspring/decimal"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// respondBindError reports request binding failures, per field when the
// validator produced them.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "malformed request body")
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "email":
			fields[name] = "is not a valid email address"
		case "gte", "min":
			fields[name] = "must be at least " + fe.Param()
		default:
			fields[name] = "is invalid"
		}
	}
	apperrors.RespondWithValidationError(c, fields)
}

type UserResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type ProductResponse struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
}

func newProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.ImageURL,
		Stock:       p.StockQuantity,
	}
}

type CartItemResponse struct {
	ID       string          `json:"_id"`
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type CartResponse struct {
	ID     string             `json:"_id"`
	UserID string             `json:"userId"`
	Items  []CartItemResponse `json:"items"`
	Total  decimal.Decimal    `json:"total"`
}

func newCartResponse(cart *model.Cart) CartResponse {
	resp := CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]CartItemResponse, 0, len(cart.Items)),
		Total:  cart.Total(),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:       item.ID,
			Product:  newProductResponse(item.Product),
			Quantity: item.Quantity,
		})
	}
	return resp
}

type ReceiptItemResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ItemTotal decimal.Decimal `json:"itemTotal"`
}

type ReceiptResponse struct {
	ReceiptID string                `json:"receiptId"`
	UserID    string                `json:"userId"`
	Items     []ReceiptItemResponse `json:"items"`
	Total     decimal.Decimal       `json:"total"`
	Timestamp time.Time             `json:"timestamp"`
	Status    string                `json:"status"`
}

func newReceiptResponse(order *model.Order) ReceiptResponse {
	resp := ReceiptResponse{
		ReceiptID: order.ID,
		UserID:    order.UserID,
		Items:     make([]ReceiptItemResponse, 0, len(order.OrderItems)),
		Total:     order.Total,
		Timestamp: order.CreatedAt.UTC(),
		Status:    string(order.Status),
	}
	for _, item := range order.OrderItems {
		resp.Items = append(resp.Items, ReceiptItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ItemTotal: item.ItemTotal,
		})
	}
	return resp
}
