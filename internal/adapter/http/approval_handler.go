package http

import (
	"net/http"
	"strings"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type rejectLoanReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	// Validate path param
	loanID := strings.TrimSpace(c.Param("loan_id"))
	if loanID == "" {
		return badRequest(c, "missing loan_id path param")
	}
	dto, err := h.uc.Approve(c.Request().Context(), approval.ApproveInput{
		LoanID:  loanID,
		AdminID: middleware.UserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RejectLoan(c echo.Context) error {
	loanID := strings.TrimSpace(c.Param("loan_id"))
	if loanID == "" {
		return badRequest(c, "missing loan_id path param")
	}
	// Bind + validate body payload JSON
	var req rejectLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Reject(c.Request().Context(), approval.RejectInput{
		LoanID:  loanID,
		AdminID: middleware.UserID(c),
		Reason:  req.Reason,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) GetDecision(c echo.Context) error {
	loanID := strings.TrimSpace(c.Param("loan_id"))
	if loanID == "" {
		return badRequest(c, "missing loan_id path param")
	}
	dto, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
