package http

import (
	"context"
	"net/http"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/usecase/wallet"

	"github.com/labstack/echo/v4"
)

type WalletHandler struct{ uc *wallet.Usecase }

func NewWalletHandler(uc *wallet.Usecase) *WalletHandler { return &WalletHandler{uc: uc} }

type movementReq struct {
	Amount    int64  `json:"amount"    validate:"required,gt=0"`
	Reference string `json:"reference" validate:"max=128"`
}

func (h *WalletHandler) Deposit(c echo.Context) error {
	return h.move(c, h.uc.Deposit)
}

func (h *WalletHandler) Withdraw(c echo.Context) error {
	return h.move(c, h.uc.Withdraw)
}

func (h *WalletHandler) move(c echo.Context, op func(context.Context, wallet.MovementInput) (*wallet.MovementDTO, error)) error {
	key := middleware.IdempotencyKey(c)
	if key == "" {
		return badRequest(c, "missing or invalid Ax-Request-Id")
	}
	var req movementReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := op(c.Request().Context(), wallet.MovementInput{
		UserID:         middleware.UserID(c),
		Amount:         req.Amount,
		IdempotencyKey: key,
		Reference:      req.Reference,
	})
	return reply(c, http.StatusCreated, dto, err)
}

func (h *WalletHandler) Balance(c echo.Context) error {
	userID, err := walletOwner(c)
	if err != nil {
		return fail(c, err)
	}
	dto, err := h.uc.GetBalance(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
