package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
)

// SellerStore is satisfied by repository.SellerRepo.
type SellerStore interface {
	Create(ctx context.Context, s *model.Seller) error
	GetByID(ctx context.Context, id string) (model.Seller, error)
	List(ctx context.Context, includeInactive bool) ([]model.Seller, error)
	Update(ctx context.Context, id string, p model.SellerPatch) error
}

// ProductStore is satisfied by repository.ProductRepo.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id string, p model.ProductPatch) error
}

// CatalogHandler serves sellers and products.  Purge, when set, is called
// after every admin write so cached listings refresh.
type CatalogHandler struct {
	Sellers  SellerStore
	Products ProductStore
	Purge    func(ctx context.Context)
	Log      *slog.Logger
}

func NewCatalogHandler(s SellerStore, p ProductStore, purge func(ctx context.Context), log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{Sellers: s, Products: p, Purge: purge, Log: log}
}

func (h *CatalogHandler) purge(ctx context.Context) {
	if h.Purge != nil {
		h.Purge(ctx)
	}
}

// ---- Sellers ----

type createSellerReq struct {
	Alias          string         `json:"alias" validate:"required,max=128"`
	Location       string         `json:"location" validate:"max=128"`
	Age            int            `json:"age" validate:"gte=0,lte=130"`
	Bio            string         `json:"bio" validate:"max=4000"`
	CommissionRate *numericString `json:"commissionRate" validate:"omitempty,numeric"`
	IsActive       *bool          `json:"isActive"`
}

type patchSellerReq struct {
	Alias          *string        `json:"alias" validate:"omitempty,min=1,max=128"`
	Location       *string        `json:"location" validate:"omitempty,max=128"`
	Age            *int           `json:"age" validate:"omitempty,gte=0,lte=130"`
	Bio            *string        `json:"bio" validate:"omitempty,max=4000"`
	CommissionRate *numericString `json:"commissionRate" validate:"omitempty,numeric"`
	IsActive       *bool          `json:"isActive"`
}

func commissionRate(n *numericString) (decimal.Decimal, error) {
	rate := n.decimal()
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate, &httpError{status: http.StatusBadRequest, msg: "validation failed",
			fields: map[string]string{"commissionRate": "must be between 0 and 1"}}
	}
	return rate, nil
}

// ListSellers returns active sellers.
func (h *CatalogHandler) ListSellers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Sellers.List(ctx, false)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListAllSellers includes inactive sellers for the admin dashboard.
func (h *CatalogHandler) ListAllSellers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Sellers.List(ctx, true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) CreateSeller(c echo.Context) error {
	var req createSellerReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	s := model.Seller{
		ID:             uuid.NewString(),
		Alias:          strings.TrimSpace(req.Alias),
		Location:       strings.TrimSpace(req.Location),
		Age:            req.Age,
		Bio:            req.Bio,
		CommissionRate: model.DefaultCommissionRate,
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if req.CommissionRate != nil {
		rate, err := commissionRate(req.CommissionRate)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		s.CommissionRate = rate
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sellers.Create(ctx, &s); err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, s)
}

func (h *CatalogHandler) UpdateSeller(c echo.Context) error {
	var req patchSellerReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	if req.Alias != nil && strings.TrimSpace(*req.Alias) == "" {
		return respondError(c, h.Log, &httpError{status: http.StatusBadRequest, msg: "validation failed",
			fields: map[string]string{"alias": "required"}})
	}
	p := model.SellerPatch{Alias: req.Alias, Location: req.Location, Age: req.Age, Bio: req.Bio, IsActive: req.IsActive}
	if req.CommissionRate != nil {
		rate, err := commissionRate(req.CommissionRate)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		p.CommissionRate = &rate
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("id")
	if err := h.Sellers.Update(ctx, id, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seller not found"})
		}
		return respondError(c, h.Log, err)
	}
	s, err := h.Sellers.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, s)
}

// ---- Products ----

type createProductReq struct {
	SellerID    string         `json:"sellerId" validate:"required"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=10000"`
	Size        string         `json:"size" validate:"max=32"`
	Color       string         `json:"color" validate:"max=64"`
	Material    string         `json:"material" validate:"max=64"`
	PriceKr     numericString  `json:"priceKr" validate:"required,numeric"`
	ImageURL    string         `json:"imageUrl" validate:"omitempty,url,max=1024"`
	IsAvailable *bool          `json:"isAvailable"`
	WearDays    *numericString `json:"wearDays" validate:"omitempty,numeric"`
}

type patchProductReq struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=10000"`
	Size        *string        `json:"size" validate:"omitempty,max=32"`
	Color       *string        `json:"color" validate:"omitempty,max=64"`
	Material    *string        `json:"material" validate:"omitempty,max=64"`
	PriceKr     *numericString `json:"priceKr" validate:"omitempty,numeric"`
	ImageURL    *string        `json:"imageUrl" validate:"omitempty,url,max=1024"`
	IsAvailable *bool          `json:"isAvailable"`
	WearDays    *numericString `json:"wearDays" validate:"omitempty,numeric"`
}

func priceKr(n numericString) (decimal.Decimal, error) {
	price := n.decimal()
	if price.IsNegative() {
		return price, &httpError{status: http.StatusBadRequest, msg: "validation failed",
			fields: map[string]string{"priceKr": "must not be negative"}}
	}
	return price.Round(2), nil
}

// wearDays truncates to a whole, non-negative number of days.
func wearDays(n *numericString) int {
	if n == nil {
		return 0
	}
	d := int(n.decimal().IntPart())
	if d < 0 {
		return 0
	}
	return d
}

// ListProducts supports ?sellerId= and ?available=true|false.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	f := model.ProductFilter{SellerID: strings.TrimSpace(c.QueryParam("sellerId"))}
	if v := c.QueryParam("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "available must be true or false"})
		}
		f.Available = &b
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Products.List(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req createProductReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	price, err := priceKr(req.PriceKr)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	p := model.Product{
		ID:          uuid.NewString(),
		SellerID:    req.SellerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Size:        req.Size,
		Color:       req.Color,
		Material:    req.Material,
		PriceKr:     price,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
		WearDays:    wearDays(req.WearDays),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Products.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrReference) {
			return respondError(c, h.Log, &httpError{status: http.StatusBadRequest, msg: "validation failed",
				fields: map[string]string{"sellerId": "unknown seller"}})
		}
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var req patchProductReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return respondError(c, h.Log, &httpError{status: http.StatusBadRequest, msg: "validation failed",
			fields: map[string]string{"title": "required"}})
	}
	p := model.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Size:        req.Size,
		Color:       req.Color,
		Material:    req.Material,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
	}
	if req.PriceKr != nil {
		price, err := priceKr(*req.PriceKr)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		p.PriceKr = &price
	}
	if req.WearDays != nil {
		d := wearDays(req.WearDays)
		p.WearDays = &d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("id")
	if err := h.Products.Update(ctx, id, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return respondError(c, h.Log, err)
	}
	out, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, out)
}
