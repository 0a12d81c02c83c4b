package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository/memory"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type response struct {
	Success    bool             `json:"success"`
	Data       json.RawMessage  `json:"data"`
	Message    string           `json:"message"`
	Balance    *decimal.Decimal `json:"balance"`
	Pagination *Pagination      `json:"pagination"`
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{Store: config.StoreMemory, JWTSecret: "test-secret", JWTTTL: time.Hour}
	svc := service.NewService(memory.New(), log, cfg)
	return NewRouter(NewHandler(svc, log))
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var res response
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code, res
}

func register(t *testing.T, r http.Handler, name string) string {
	t.Helper()
	code, res := do(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": "secret123",
		"firstName": "First", "lastName": "Last",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: %d %s", code, res.Message)
	}
	var data struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("register data %s: %v", res.Data, err)
	}
	return data.Token
}

func createCategory(t *testing.T, r http.Handler, token, name, typ string) int64 {
	t.Helper()
	code, res := do(t, r, http.MethodPost, "/api/categories", token, map[string]string{"name": name, "type": typ})
	if code != http.StatusCreated {
		t.Fatalf("create category: %d %s", code, res.Message)
	}
	var c models.Category
	if err := json.Unmarshal(res.Data, &c); err != nil {
		t.Fatalf("category data: %v", err)
	}
	return c.ID
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "alice")

	code, res := do(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if code != http.StatusUnauthorized || res.Success || res.Message != "Invalid credentials" {
		t.Fatalf("bad login: %d %+v", code, res)
	}

	code, res = do(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, res.Message)
	}

	code, res = do(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d", code)
	}
	var me map[string]interface{}
	if err := json.Unmarshal(res.Data, &me); err != nil {
		t.Fatalf("me data: %v", err)
	}
	if me["username"] != "alice" || me["totalBalance"] != "0" {
		t.Fatalf("unexpected profile %v", me)
	}
	if _, leaked := me["passwordHash"]; leaked {
		t.Fatal("password hash exposed")
	}

	if code, _ := do(t, r, http.MethodGet, "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/api/auth/me", "garbage", nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}

	orphan, err := utils.GenerateToken("test-secret", 999, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	code, res = do(t, r, http.MethodGet, "/api/auth/me", orphan, nil)
	if code != http.StatusUnauthorized || res.Message != "Not authorized, user not found" {
		t.Fatalf("token of a missing user: %d %q", code, res.Message)
	}

	code, res = do(t, r, http.MethodPut, "/api/auth/profile", token, map[string]string{"currency": "eur"})
	if code != http.StatusOK {
		t.Fatalf("profile: %d %s", code, res.Message)
	}
	if err := json.Unmarshal(res.Data, &me); err != nil || me["currency"] != "EUR" {
		t.Fatalf("profile data %s", res.Data)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "bob")
	food := createCategory(t, r, token, "Food", "expense")

	code, res := do(t, r, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"amount": 100, "type": "expense", "categoryId": food, "description": "groceries", "date": "2026-03-01",
	})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, res.Message)
	}
	if res.Balance == nil || !res.Balance.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("balance after create: %v", res.Balance)
	}
	var tr models.Transaction
	if err := json.Unmarshal(res.Data, &tr); err != nil {
		t.Fatalf("transaction data: %v", err)
	}
	if tr.Category == nil || tr.Category.Name != "Food" {
		t.Fatalf("category summary missing: %s", res.Data)
	}
	path := "/api/transactions/" + strconv.FormatInt(tr.ID, 10)

	code, res = do(t, r, http.MethodPut, path, token, map[string]interface{}{"type": "income"})
	if code != http.StatusOK {
		t.Fatalf("update: %d %s", code, res.Message)
	}
	if !res.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance after flip: %v", res.Balance)
	}

	code, res = do(t, r, http.MethodGet, "/api/transactions?page=1&limit=5&type=income", token, nil)
	if code != http.StatusOK || res.Pagination == nil {
		t.Fatalf("list: %d %+v", code, res)
	}
	if *res.Pagination != (Pagination{Page: 1, Limit: 5, Total: 1, Pages: 1}) {
		t.Fatalf("pagination %+v", *res.Pagination)
	}

	code, res = do(t, r, http.MethodGet, "/api/transactions?startDate=2026-03-02", token, nil)
	if code != http.StatusOK || res.Pagination.Total != 0 || string(res.Data) != "[]" {
		t.Fatalf("filtered list: %d %s", code, res.Data)
	}
	code, res = do(t, r, http.MethodGet, "/api/transactions?endDate=2026-03-01", token, nil)
	if code != http.StatusOK || res.Pagination.Total != 1 {
		t.Fatalf("end date should include the whole day: %d %+v", code, res.Pagination)
	}

	code, res = do(t, r, http.MethodDelete, path, token, nil)
	if code != http.StatusOK || !res.Balance.IsZero() {
		t.Fatalf("delete: %d balance %v", code, res.Balance)
	}
	if code, _ := do(t, r, http.MethodGet, path, token, nil); code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "carol")
	other := register(t, r, "dave")
	food := createCategory(t, r, token, "Food", "expense")

	code, res := do(t, r, http.MethodPost, "/api/categories/defaults", token, nil)
	if code != http.StatusCreated {
		t.Fatalf("seed: %d %s", code, res.Message)
	}
	var defaults []models.Category
	if err := json.Unmarshal(res.Data, &defaults); err != nil || len(defaults) == 0 {
		t.Fatalf("defaults %s", res.Data)
	}
	defaultPath := "/api/categories/" + strconv.FormatInt(defaults[0].ID, 10)

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		body    interface{}
		want    int
		message string
	}{
		{"zero amount", http.MethodPost, "/api/transactions", token,
			map[string]interface{}{"amount": 0, "type": "expense", "categoryId": food, "description": "x"}, http.StatusBadRequest, ""},
		{"foreign category", http.MethodPost, "/api/transactions", other,
			map[string]interface{}{"amount": 5, "type": "expense", "categoryId": food, "description": "x"}, http.StatusBadRequest, "Invalid category"},
		{"malformed body", http.MethodPost, "/api/transactions", token, "{", http.StatusBadRequest, "Invalid request body"},
		{"bad date", http.MethodPost, "/api/transactions", token,
			map[string]interface{}{"amount": 5, "type": "expense", "categoryId": food, "description": "x", "date": "yesterday"}, http.StatusBadRequest, ""},
		{"missing transaction", http.MethodDelete, "/api/transactions/999", token, nil, http.StatusNotFound, "Transaction not found"},
		{"update default category", http.MethodPut, defaultPath, token, map[string]string{"name": "x"}, http.StatusForbidden, "Cannot update default category"},
		{"delete default category", http.MethodDelete, defaultPath, token, nil, http.StatusForbidden, "Cannot delete default category"},
		{"foreign default category", http.MethodDelete, defaultPath, other, nil, http.StatusNotFound, "Category not found"},
		{"bad page", http.MethodGet, "/api/transactions?page=0", token, nil, http.StatusBadRequest, ""},
		{"bad type filter", http.MethodGet, "/api/categories?type=gift", token, nil, http.StatusBadRequest, ""},
		{"no token", http.MethodGet, "/api/categories", "", nil, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := do(t, r, tt.method, tt.path, tt.token, tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", code, tt.want, res.Message)
			}
			if res.Success {
				t.Fatal("success must be false")
			}
			if tt.message != "" && res.Message != tt.message {
				t.Fatalf("message = %q, want %q", res.Message, tt.message)
			}
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "erin")

	code, res := do(t, r, http.MethodGet, "/api/transactions/stats?period=week", token, nil)
	if code != http.StatusOK {
		t.Fatalf("stats: %d %s", code, res.Message)
	}
	if string(res.Data) != `{"overview":[],"categoryBreakdown":[]}` {
		t.Fatalf("empty stats = %s", res.Data)
	}

	salary := createCategory(t, r, token, "Salary", "income")
	if code, res := do(t, r, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"amount": "1500.50", "type": "income", "categoryId": salary, "description": "pay",
	}); code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, res.Message)
	}

	code, res = do(t, r, http.MethodGet, "/api/transactions/stats", token, nil)
	if code != http.StatusOK {
		t.Fatalf("stats: %d", code)
	}
	var stats models.Stats
	if err := json.Unmarshal(res.Data, &stats); err != nil {
		t.Fatalf("stats data: %v", err)
	}
	if len(stats.Overview) != 1 || !stats.Overview[0].Total.Equal(decimal.RequireFromString("1500.50")) {
		t.Fatalf("overview %+v", stats.Overview)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	code, res := do(t, r, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK || !res.Success {
		t.Fatalf("health: %d %+v", code, res)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("metrics: %d", rr.Code)
	}
}
