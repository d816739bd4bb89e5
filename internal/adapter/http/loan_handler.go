package http

import (
	"net/http"
	"strings"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/usecase/funding"
	"p2p-lending/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	uc      *loan.Usecase
	funding *funding.Coordinator
}

func NewLoanHandler(uc *loan.Usecase, funding *funding.Coordinator) *LoanHandler {
	return &LoanHandler{uc: uc, funding: funding}
}

type submitLoanReq struct {
	Amount     int64  `json:"amount"      validate:"required,gt=0"`
	Rate       string `json:"rate"        validate:"required,rate"`
	TermMonths int    `json:"term_months" validate:"required,gte=1,lte=360"`
}

type fundLoanReq struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func (h *LoanHandler) SubmitLoan(c echo.Context) error {
	var req submitLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	rate, _ := decimal.NewFromString(req.Rate)

	dto, err := h.uc.Submit(c.Request().Context(), loan.SubmitInput{
		BorrowerID: middleware.UserID(c),
		Amount:     req.Amount,
		Rate:       rate,
		TermMonths: req.TermMonths,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
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

// FundLoan commits the caller's contribution. The request id is the
// contribution's idempotency key.
func (h *LoanHandler) FundLoan(c echo.Context) error {
	loanID := strings.TrimSpace(c.Param("loan_id"))
	if loanID == "" {
		return badRequest(c, "missing loan_id path param")
	}
	key := middleware.IdempotencyKey(c)
	if key == "" {
		return badRequest(c, "missing or invalid Ax-Request-Id")
	}
	var req fundLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.funding.Fund(c.Request().Context(), funding.FundInput{
		LoanID:         loanID,
		LenderID:       middleware.UserID(c),
		Amount:         req.Amount,
		IdempotencyKey: key,
	})
	return reply(c, http.StatusCreated, res, err)
}
