package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/adapter/repository/memory"
	"p2p-lending/internal/lock"
	"p2p-lending/internal/logging"
	"p2p-lending/internal/testutil/eventmock"
	"p2p-lending/internal/usecase/approval"
	"p2p-lending/internal/usecase/audit"
	"p2p-lending/internal/usecase/funding"
	"p2p-lending/internal/usecase/loan"
	"p2p-lending/internal/usecase/retry"
	"p2p-lending/internal/usecase/wallet"

	"github.com/labstack/echo/v4"
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

type caller struct{ id, role string }

var (
	borrower = caller{"borrower-1", middleware.RoleBorrower}
	lenderA  = caller{"lender-a", middleware.RoleLender}
	lenderB  = caller{"lender-b", middleware.RoleLender}
	admin    = caller{"admin-1", middleware.RoleAdmin}
)

var reqSeq int

// nextReqID returns a fresh 32-hex request id.
func nextReqID() string {
	reqSeq++
	return fmt.Sprintf("%032x", reqSeq)
}

// call runs h behind the identity middleware, like the router does.
func call(t *testing.T, e *echo.Echo, h echo.HandlerFunc, method, path string, body io.Reader, who caller, reqID string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderUserID, who.id)
	req.Header.Set(middleware.HeaderUserRole, who.role)
	if reqID != "" {
		req.Header.Set(middleware.HeaderRequestID, reqID)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names, values := []string{}, []string{}
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if err := middleware.Identity()(h)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

// app wires every handler over one in-memory store.
type app struct {
	store    *memory.Store
	handlers Handlers
}

func newApp() *app {
	s := memory.NewStore()
	r := s.Repos()
	locker := lock.NewMemory(time.Second)
	policy := retry.Policy{MaxAttempts: 5, Initial: time.Millisecond, Max: 5 * time.Millisecond}
	log := logging.Discard()

	return &app{
		store: s,
		handlers: Handlers{
			Health: NewHandler(),
			Loans: NewLoanHandler(
				loan.NewUsecase(r.Loans, locker),
				funding.NewCoordinator(s, r, locker, &eventmock.Recorder{}, policy, log),
			),
			Approvals: NewApprovalHandler(approval.NewUsecase(r.Loans, r.Approvals, s, approval.Deps{Locker: locker, Policy: policy, Log: log})),
			Wallets:   NewWalletHandler(wallet.NewUsecase(r.Wallets, r.Ledger, s, locker, policy, log)),
			Audit:     NewAuditHandler(audit.NewUsecase(r.Loans, r.Wallets, r.Ledger, log)),
		},
	}
}
