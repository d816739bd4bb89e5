package http

import (
	"p2p-lending/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health    *Handler
	Loans     *LoanHandler
	Approvals *ApprovalHandler
	Wallets   *WalletHandler
	Audit     *AuditHandler
}

// Register mounts every route. idem guards mutating routes and may be nil
// when no response cache is configured; the ledger still dedupes by request id.
func Register(e *echo.Echo, h Handlers, idem echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	api := e.Group("", middleware.Identity())
	mut := []echo.MiddlewareFunc{}
	if idem != nil {
		mut = append(mut, idem)
	}
	with := func(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		return append(extra, mut...)
	}
	admin := middleware.RequireRole(middleware.RoleAdmin)

	api.POST("/loans", h.Loans.SubmitLoan, with(middleware.RequireRole(middleware.RoleBorrower))...)
	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.POST("/loans/:loan_id/approve", h.Approvals.ApproveLoan, with(admin)...)
	api.POST("/loans/:loan_id/reject", h.Approvals.RejectLoan, with(admin)...)
	api.GET("/loans/:loan_id/approval", h.Approvals.GetDecision)
	api.POST("/loans/:loan_id/fund", h.Loans.FundLoan, with(middleware.RequireRole(middleware.RoleLender))...)
	api.GET("/loans/:loan_id/entries", h.Audit.LoanEntries, admin)
	api.GET("/loans/:loan_id/reconcile", h.Audit.ReconcileLoan, admin)

	api.POST("/wallets/me/deposits", h.Wallets.Deposit, with()...)
	api.POST("/wallets/me/withdrawals", h.Wallets.Withdraw, with()...)
	api.GET("/wallets/:user_id/balance", h.Wallets.Balance)
	api.GET("/wallets/:user_id/entries", h.Audit.WalletEntries)
	api.GET("/wallets/:user_id/reconcile", h.Audit.ReconcileWallet, admin)
}
