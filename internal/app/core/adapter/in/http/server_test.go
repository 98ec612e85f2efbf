package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// ---- helpers ----

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := memory_adapter.NewStore(nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewServer(usecase.NewLedgerService(store)).Router()
}

func doRequest(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (string, json.RawMessage, string) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
	}
	return env.Status, env.Result, env.Error
}

func createAccount(t *testing.T, r *gin.Engine, name string, balance int64) domain.Account {
	t.Helper()
	q := url.Values{}
	q.Set("cardholderName", name)
	q.Set("balance", fmt.Sprintf("%d", balance))
	w := doRequest(t, r, http.MethodPost, "/account?"+q.Encode(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("create account: status %d, body %s", w.Code, w.Body.String())
	}
	_, result, _ := decodeEnvelope(t, w)
	var account domain.Account
	if err := json.Unmarshal(result, &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return account
}

// ---- tests ----

func TestCreateAndGetAccount(t *testing.T) {
	r := newTestRouter(t)

	account := createAccount(t, r, "alice", 10000)
	if account.CardholderName != "alice" || account.Balance != 10000 {
		t.Errorf("created account = %+v", account)
	}

	w := doRequest(t, r, http.MethodGet, "/account?id="+account.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get account: status %d", w.Code)
	}
	status, result, _ := decodeEnvelope(t, w)
	if status != "OK" {
		t.Errorf("status = %q, want OK", status)
	}
	var got domain.Account
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if got != account {
		t.Errorf("got %+v, want %+v", got, account)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	r := newTestRouter(t)

	// 負的初始餘額
	w := doRequest(t, r, http.MethodPost, "/account?cardholderName=alice&balance=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative balance: status = %d, want 400", w.Code)
	}
	status, _, errMsg := decodeEnvelope(t, w)
	if status != "NE_OK" || errMsg == "" {
		t.Errorf("envelope = %q / %q, want NE_OK with error", status, errMsg)
	}

	// 缺姓名
	w = doRequest(t, r, http.MethodPost, "/account?balance=100", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", w.Code)
	}

	// balance 不是數字
	w = doRequest(t, r, http.MethodPost, "/account?cardholderName=alice&balance=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad balance: status = %d, want 400", w.Code)
	}
}

func TestGetUnknownAccount(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/account?id="+uuid.New().String(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/account?id=not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
}

func TestWithdrawAndDeposit(t *testing.T) {
	r := newTestRouter(t)
	account := createAccount(t, r, "alice", 1000)

	w := doRequest(t, r, http.MethodPost,
		fmt.Sprintf("/account/withdraw?id=%s&amount=400", account.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("withdraw: status %d, body %s", w.Code, w.Body.String())
	}
	_, result, _ := decodeEnvelope(t, w)
	var got domain.Account
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if got.Balance != 600 {
		t.Errorf("balance after withdraw = %d, want 600", got.Balance)
	}

	w = doRequest(t, r, http.MethodPost,
		fmt.Sprintf("/account/deposit?id=%s&amount=150", account.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("deposit: status %d", w.Code)
	}
	_, result, _ = decodeEnvelope(t, w)
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if got.Balance != 750 {
		t.Errorf("balance after deposit = %d, want 750", got.Balance)
	}
}

func TestWithdrawErrorMapping(t *testing.T) {
	r := newTestRouter(t)
	account := createAccount(t, r, "alice", 100)

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"zero amount", fmt.Sprintf("/account/withdraw?id=%s&amount=0", account.ID), http.StatusBadRequest},
		{"negative amount", fmt.Sprintf("/account/withdraw?id=%s&amount=-5", account.ID), http.StatusBadRequest},
		{"insufficient funds", fmt.Sprintf("/account/withdraw?id=%s&amount=101", account.ID), http.StatusUnprocessableEntity},
		{"unknown account", fmt.Sprintf("/account/withdraw?id=%s&amount=10", uuid.New()), http.StatusNotFound},
		{"missing amount", fmt.Sprintf("/account/withdraw?id=%s", account.ID), http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doRequest(t, r, http.MethodPost, tc.target, "")
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestTransfer(t *testing.T) {
	r := newTestRouter(t)
	alice := createAccount(t, r, "alice", 1000)
	bob := createAccount(t, r, "bob", 200)

	body := fmt.Sprintf(`{"sourceId":%q,"destinationId":%q,"amount":300}`, alice.ID, bob.ID)
	w := doRequest(t, r, http.MethodPost, "/account/transfer", body)
	if w.Code != http.StatusOK {
		t.Fatalf("transfer: status %d, body %s", w.Code, w.Body.String())
	}
	status, _, _ := decodeEnvelope(t, w)
	if status != "OK" {
		t.Errorf("status = %q, want OK", status)
	}

	w = doRequest(t, r, http.MethodGet, "/account?id="+alice.ID.String(), "")
	_, result, _ := decodeEnvelope(t, w)
	var got domain.Account
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if got.Balance != 700 {
		t.Errorf("alice balance = %d, want 700", got.Balance)
	}
}

func TestTransferErrorMapping(t *testing.T) {
	r := newTestRouter(t)
	alice := createAccount(t, r, "alice", 100)
	bob := createAccount(t, r, "bob", 0)

	cases := []struct {
		name string
		body string
		want int
	}{
		{
			"insufficient funds",
			fmt.Sprintf(`{"sourceId":%q,"destinationId":%q,"amount":101}`, alice.ID, bob.ID),
			http.StatusUnprocessableEntity,
		},
		{
			"unknown destination",
			fmt.Sprintf(`{"sourceId":%q,"destinationId":%q,"amount":10}`, alice.ID, uuid.New()),
			http.StatusNotFound,
		},
		{
			"non-positive amount",
			fmt.Sprintf(`{"sourceId":%q,"destinationId":%q,"amount":0}`, alice.ID, bob.ID),
			http.StatusBadRequest,
		},
		{
			"malformed body",
			`{"sourceId": 123`,
			http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		w := doRequest(t, r, http.MethodPost, "/account/transfer", tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}
