package http

import (
	"net/http"
	"strings"

	"p2p-lending/internal/usecase/audit"

	"github.com/labstack/echo/v4"
)

type AuditHandler struct{ uc *audit.Usecase }

func NewAuditHandler(uc *audit.Usecase) *AuditHandler { return &AuditHandler{uc: uc} }

func (h *AuditHandler) WalletEntries(c echo.Context) error {
	userID, err := walletOwner(c)
	if err != nil {
		return fail(c, err)
	}
	rows, err := h.uc.Entries(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"wallet_id": userID, "entries": rows})
}

func (h *AuditHandler) LoanEntries(c echo.Context) error {
	loanID := strings.TrimSpace(c.Param("loan_id"))
	rows, err := h.uc.LoanEntries(c.Request().Context(), loanID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, "entries": rows})
}

func (h *AuditHandler) ReconcileWallet(c echo.Context) error {
	rep, err := h.uc.ReconcileWallet(c.Request().Context(), strings.TrimSpace(c.Param("user_id")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *AuditHandler) ReconcileLoan(c echo.Context) error {
	rep, err := h.uc.ReconcileLoan(c.Request().Context(), strings.TrimSpace(c.Param("loan_id")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
