package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/service"
)

// PromoService is satisfied by *service.PromoValidator.
type PromoService interface {
	Validate(ctx context.Context, code string) (model.PromoCode, error)
	List(ctx context.Context) ([]model.PromoCode, error)
	Create(ctx context.Context, in service.PromoInput) (model.PromoCode, error)
	Update(ctx context.Context, id string, in service.PromoInput) (model.PromoCode, error)
	Delete(ctx context.Context, id string) error
}

type PromoHandler struct {
	Promos PromoService
	Log    *slog.Logger
}

func NewPromoHandler(p PromoService, log *slog.Logger) *PromoHandler {
	return &PromoHandler{Promos: p, Log: log}
}

// promoCheck is what checkout sees; usage figures stay private.
type promoCheck struct {
	Code        string          `json:"code"`
	DiscountKr  decimal.Decimal `json:"discountKr"`
	Description string          `json:"description"`
}

// Validate: GET /api/promo-codes/:code.  Does not consume a use.
func (h *PromoHandler) Validate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Promos.Validate(ctx, c.Param("code"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "promo": promoCheck{Code: p.Code, DiscountKr: p.DiscountKr, Description: p.Description}})
}

type promoReq struct {
	Code        string        `json:"code" validate:"required,max=64"`
	DiscountKr  numericString `json:"discountKr" validate:"required,numeric"`
	Description string        `json:"description" validate:"max=255"`
	MaxUsage    *int          `json:"maxUsage" validate:"omitempty,gte=0"`
	ValidFrom   *time.Time    `json:"validFrom"`
	ValidUntil  *time.Time    `json:"validUntil"`
	IsActive    *bool         `json:"isActive"`
}

func (r promoReq) input() service.PromoInput {
	in := service.PromoInput{
		Code:        r.Code,
		DiscountKr:  r.DiscountKr.decimal(),
		Description: r.Description,
		MaxUsage:    r.MaxUsage,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
		IsActive:    true,
	}
	if r.IsActive != nil {
		in.IsActive = *r.IsActive
	}
	return in
}

func (h *PromoHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Promos.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PromoHandler) Create(c echo.Context) error {
	var req promoReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Promos.Create(ctx, req.input())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update replaces a code (PUT semantics); omitted optional limits are
// cleared.
func (h *PromoHandler) Update(c echo.Context) error {
	var req promoReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Promos.Update(ctx, c.Param("id"), req.input())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PromoHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Promos.Delete(ctx, c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
