package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hearth/internal/analytics"
	"hearth/internal/auth"
	"hearth/internal/core"
	"hearth/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemory()
	jwt := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	svc := auth.NewService(store, jwt)
	engine := analytics.NewEngine(store)
	srv := NewServer(":0", store, svc, jwt, engine, nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

type session struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

func registerFamily(t *testing.T, srv *Server) session {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"familyName": "Rossi",
		"name":       "Ana",
		"email":      "ana@example.com",
		"password":   "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", rr.Code, rr.Body.String())
	}
	return decodeBody[session](t, rr)
}

func addChild(t *testing.T, srv *Server, adminToken string, caps core.CapabilitySet) session {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/members", adminToken, map[string]any{
		"name":        "Ben",
		"email":       "ben@example.com",
		"password":    "password123",
		"role":        "child",
		"permissions": caps,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create member status = %d body = %s", rr.Code, rr.Body.String())
	}
	login := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ben@example.com",
		"password": "password123",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("member login status = %d body = %s", login.Code, login.Body.String())
	}
	return decodeBody[session](t, login)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/expenses", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/expenses", "bogus-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rr.Code)
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	sess := registerFamily(t, srv)

	if sess.User.Role != core.RoleAdmin {
		t.Errorf("founder role = %q, want admin", sess.User.Role)
	}
	if sess.Token == "" {
		t.Fatal("missing token")
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rr.Code)
	}
}

func TestExpenseCRUDAndScoping(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{
		core.CapAddExpenses: true, core.CapEditExpenses: true,
	})

	// Admin creates a family expense.
	rr := doJSON(t, srv, http.MethodPost, "/api/expenses", admin.Token, map[string]any{
		"amount":   4000,
		"category": "groceries",
		"date":     "2026-08-10",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rr.Code, rr.Body.String())
	}
	adminExpense := decodeBody[core.Expense](t, rr)

	// Child creates their own; a decimal string amount is accepted too.
	rr = doJSON(t, srv, http.MethodPost, "/api/expenses", child.Token, map[string]any{
		"amount":   "15.50",
		"category": "snacks",
		"date":     "2026-08-11",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("child create status = %d body = %s", rr.Code, rr.Body.String())
	}
	childExpense := decodeBody[core.Expense](t, rr)
	if childExpense.Amount.Cents != 1550 {
		t.Errorf("amount = %d, want 1550", childExpense.Amount.Cents)
	}

	// Without viewExpenses the child's list narrows to their own records.
	rr = doJSON(t, srv, http.MethodGet, "/api/expenses", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("child list status = %d", rr.Code)
	}
	childView := decodeBody[[]core.Expense](t, rr)
	if len(childView) != 1 || childView[0].ID != childExpense.ID {
		t.Fatalf("child sees %d expenses, want only their own", len(childView))
	}

	// The admin sees the whole family.
	rr = doJSON(t, srv, http.MethodGet, "/api/expenses", admin.Token, nil)
	familyView := decodeBody[[]core.Expense](t, rr)
	if len(familyView) != 2 {
		t.Fatalf("admin sees %d expenses, want 2", len(familyView))
	}

	// Editing another member's expense is denied despite the edit grant.
	rr = doJSON(t, srv, http.MethodPut, "/api/expenses/"+adminExpense.ID, child.Token, map[string]any{
		"amount":   1,
		"category": "x",
		"date":     "2026-08-11",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("cross-owner edit status = %d, want 403", rr.Code)
	}

	// Editing their own succeeds.
	rr = doJSON(t, srv, http.MethodPut, "/api/expenses/"+childExpense.ID, child.Token, map[string]any{
		"amount":   2000,
		"category": "snacks",
		"date":     "2026-08-11",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("own edit status = %d body = %s", rr.Code, rr.Body.String())
	}

	// Delete requires its own capability, which the child lacks entirely.
	rr = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+childExpense.ID, child.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("delete without capability status = %d, want 403", rr.Code)
	}
}

func TestCapabilityDenialCarriesReason(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{})

	rr := doJSON(t, srv, http.MethodGet, "/api/bills", child.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["message"] != "no permission to view bills" {
		t.Fatalf("message = %q", body["message"])
	}
}

func TestMemberManagementAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.FullCapabilitySet())

	// Even a fully-granted child cannot manage members.
	rr := doJSON(t, srv, http.MethodPost, "/api/members", child.Token, map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "password123", "role": "child",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("child member create status = %d, want 403", rr.Code)
	}

	// But everyone can read the roster.
	rr = doJSON(t, srv, http.MethodGet, "/api/members", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("child roster status = %d", rr.Code)
	}
	roster := decodeBody[[]core.User](t, rr)
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(roster))
	}
}

func TestPermissionEditsApplyWithoutRelogin(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{})

	rr := doJSON(t, srv, http.MethodGet, "/api/debts", child.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("before grant: status = %d, want 403", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/members/"+child.User.ID+"/permissions", admin.Token, map[string]any{
		"permissions": core.CapabilitySet{core.CapViewDebts: true},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("permission edit status = %d body = %s", rr.Code, rr.Body.String())
	}

	// The same token now passes: actors are rebuilt from storage per request.
	rr = doJSON(t, srv, http.MethodGet, "/api/debts", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after grant: status = %d", rr.Code)
	}
}

func TestPermissionEditMergesOverExistingGrants(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{core.CapViewDebts: true})

	rr := doJSON(t, srv, http.MethodGet, "/api/debts", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("before edit: debts status = %d", rr.Code)
	}

	// Granting an unrelated capability must not touch the existing grant.
	rr = doJSON(t, srv, http.MethodPut, "/api/members/"+child.User.ID+"/permissions", admin.Token, map[string]any{
		"permissions": core.CapabilitySet{core.CapViewBills: true},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("permission edit status = %d body = %s", rr.Code, rr.Body.String())
	}
	member := decodeBody[core.User](t, rr)
	if !member.Capabilities.Granted(core.CapViewDebts) || !member.Capabilities.Granted(core.CapViewBills) {
		t.Fatalf("capabilities = %v, want both viewDebts and viewBills", member.Capabilities)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/debts", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after edit: debts status = %d, want 200", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/bills", child.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after edit: bills status = %d, want 200", rr.Code)
	}

	// An explicit false still revokes.
	rr = doJSON(t, srv, http.MethodPut, "/api/members/"+child.User.ID+"/permissions", admin.Token, map[string]any{
		"permissions": core.CapabilitySet{core.CapViewDebts: false},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("revoke status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/debts", child.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("after revoke: debts status = %d, want 403", rr.Code)
	}
}

func TestUnknownPermissionNameRejected(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{})

	rr := doJSON(t, srv, http.MethodPut, "/api/members/"+child.User.ID+"/permissions", admin.Token, map[string]any{
		"permissions": map[string]bool{"manageRouter": true},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestBillPayFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/bills", admin.Token, map[string]any{
		"title":    "electricity",
		"category": "utilities",
		"amount":   8000,
		"dueDate":  "2026-09-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create bill status = %d body = %s", rr.Code, rr.Body.String())
	}
	bill := decodeBody[core.Bill](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/bills/"+bill.ID+"/pay", admin.Token, map[string]any{
		"paidOn": "2026-08-30",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("pay status = %d body = %s", rr.Code, rr.Body.String())
	}
	paid := decodeBody[core.Bill](t, rr)
	if !paid.Paid || paid.PaidOn == nil {
		t.Fatalf("paid bill = %+v", paid)
	}
}

func TestDebtRepayFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/debts", admin.Token, map[string]any{
		"from":    "Rossi family",
		"to":      "Uncle Joe",
		"amount":  100000,
		"purpose": "car repair",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d body = %s", rr.Code, rr.Body.String())
	}
	debt := decodeBody[debtView](t, rr)
	if debt.Remaining.Cents != 100000 {
		t.Fatalf("remaining = %d, want 100000", debt.Remaining.Cents)
	}

	for _, cents := range []int64{40000, 35000} {
		rr = doJSON(t, srv, http.MethodPost, "/api/debts/"+debt.ID+"/repay", admin.Token, map[string]any{
			"amount": cents,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("repay status = %d body = %s", rr.Code, rr.Body.String())
		}
	}
	netted := decodeBody[debtView](t, rr)
	if netted.Paid.Cents != 75000 || netted.Remaining.Cents != 25000 {
		t.Fatalf("netted = paid %d remaining %d", netted.Paid.Cents, netted.Remaining.Cents)
	}

	// Negative repayments are input errors, not adjustments.
	rr = doJSON(t, srv, http.MethodPost, "/api/debts/"+debt.ID+"/repay", admin.Token, map[string]any{
		"amount": -100,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative repay status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/debts/"+debt.ID+"/mark-repaid", admin.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("mark repaid status = %d", rr.Code)
	}
	marked := decodeBody[debtView](t, rr)
	if !marked.Repaid {
		t.Fatal("repaid flag not set")
	}
	// The flag is cosmetic; the netted balance still reflects the ledger.
	if marked.Remaining.Cents != 25000 {
		t.Fatalf("remaining after flag = %d, want 25000", marked.Remaining.Cents)
	}
}

func TestAnalyticsSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)
	child := addChild(t, srv, admin.Token, core.CapabilitySet{})

	month := time.Now().UTC().Format("2006-01")
	date := time.Now().UTC().Format("2006-01-02")

	rr := doJSON(t, srv, http.MethodPost, "/api/expenses", admin.Token, map[string]any{
		"amount": 4000, "category": "groceries", "date": date,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/analytics/summary?month="+month, admin.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d body = %s", rr.Code, rr.Body.String())
	}
	summary := decodeBody[analytics.Summary](t, rr)
	if summary.TotalMonthlyExpenses.Cents != 4000 {
		t.Errorf("total = %d, want 4000", summary.TotalMonthlyExpenses.Cents)
	}
	if len(summary.Trend) != 6 {
		t.Errorf("trend points = %d, want 6", len(summary.Trend))
	}
	if _, ok := summary.MemberTotals[admin.User.ID]; !ok {
		t.Error("admin missing from member totals")
	}
	if _, ok := summary.MemberTotals[child.User.ID]; !ok {
		t.Error("inactive child missing from member totals")
	}

	// Analytics is capability-gated for restricted members.
	rr = doJSON(t, srv, http.MethodGet, "/api/analytics/summary", child.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("child summary status = %d, want 403", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/analytics/summary?month=not-a-month", admin.Token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status = %d, want 400", rr.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	admin := registerFamily(t, srv)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"amount": 0, "category": "c", "date": "2026-08-10"}},
		{"negative amount", map[string]any{"amount": -100, "category": "c", "date": "2026-08-10"}},
		{"blank category", map[string]any{"amount": 100, "category": "  ", "date": "2026-08-10"}},
		{"bad date", map[string]any{"amount": 100, "category": "c", "date": "10/08/2026"}},
		{"long note", map[string]any{"amount": 100, "category": "c", "date": "2026-08-10",
			"note": strings.Repeat("x", 501)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/expenses", admin.Token, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestFamilyIsolation(t *testing.T) {
	srv := newTestServer(t)
	first := registerFamily(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"familyName": "Bianchi",
		"name":       "Zoe",
		"email":      "zoe@example.com",
		"password":   "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("second register status = %d", rr.Code)
	}
	second := decodeBody[session](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/expenses", first.Token, map[string]any{
		"amount": 4000, "category": "groceries", "date": "2026-08-10",
	})
	expense := decodeBody[core.Expense](t, rr)

	// The other family cannot see or touch the record.
	rr = doJSON(t, srv, http.MethodGet, "/api/expenses/"+expense.ID, second.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-family get status = %d, want 404", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/expenses", second.Token, nil)
	if got := decodeBody[[]core.Expense](t, rr); len(got) != 0 {
		t.Fatalf("cross-family list = %d records, want 0", len(got))
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < limitRequests+5; i++ {
		rr := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": fmt.Sprintf("u%d@example.com", i), "password": "password123",
		})
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("final status = %d, want 429", last)
	}
}
