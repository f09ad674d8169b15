package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := storage.NewMemoryRepository()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	hub := store.NewHub(repo, logger)
	adapter := store.NewAdapter(repo, hub, nil, logger)
	authSvc := auth.NewService(repo, time.Hour, bcrypt.MinCost, logger)

	srv := NewServer("127.0.0.1:0", repo, adapter, authSvc, logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return ts
}

func newSignedUpClient(t *testing.T, ts *httptest.Server, name, email string) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(ts.URL+"/signup", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {"secret123"},
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	return client
}

func createTransaction(t *testing.T, ts *httptest.Server, client *http.Client, body string) map[string]any {
	t.Helper()

	resp, err := client.Post(ts.URL+"/api/transactions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("create status = %d, body %s", resp.StatusCode, raw)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out
}

func listTransactions(t *testing.T, ts *httptest.Server, client *http.Client, query string) map[string]any {
	t.Helper()

	resp, err := client.Get(ts.URL + "/api/transactions" + query)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	return out
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestPagesRedirectWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	for _, path := range []string{"/", "/transactions", "/analytics"} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("GET %s status = %d, want 303", path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/signin" {
			t.Errorf("GET %s redirects to %q", path, loc)
		}
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSignUpRendersDashboardGreeting(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada Lovelace", "ada@example.com")

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Ada") {
		t.Error("dashboard should greet the user by first name")
	}
}

func TestSignInWrongPasswordShowsCleanedError(t *testing.T) {
	ts := newTestServer(t)
	newSignedUpClient(t, ts, "Ada", "ada@example.com")

	resp, err := http.PostForm(ts.URL+"/signin", url.Values{
		"email":    {"ada@example.com"},
		"password": {"wrong-password"},
	})
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "invalid login credentials") {
		t.Error("page should show the cleaned auth error")
	}
	if strings.Contains(string(body), "auth/") {
		t.Error("provider error code should be stripped from the page")
	}
}

func TestSignOutEndsSession(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	resp, err := client.PostForm(ts.URL+"/signout", nil)
	if err != nil {
		t.Fatalf("signout: %v", err)
	}
	resp.Body.Close()

	apiResp, err := client.Get(ts.URL + "/api/transactions")
	if err != nil {
		t.Fatalf("list after signout: %v", err)
	}
	defer apiResp.Body.Close()
	if apiResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status after signout = %d, want 401", apiResp.StatusCode)
	}
}

func TestTransactionCRUD(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	created := createTransaction(t, ts, client,
		`{"type":"expense","title":"Lunch","amount":250,"category":"Food","date":"2025-06-01"}`)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("create should return the assigned id")
	}
	if created["created_at"] == "" {
		t.Error("create should return the creation timestamp")
	}

	list := listTransactions(t, ts, client, "")
	if count := list["count"].(float64); count != 1 {
		t.Fatalf("count = %v, want 1", count)
	}

	update := doJSON(t, client, http.MethodPut, ts.URL+"/api/transactions/"+id,
		`{"type":"expense","title":"Team lunch","amount":300,"category":"Food","date":"2025-06-01"}`)
	update.Body.Close()
	if update.StatusCode != http.StatusNoContent {
		t.Fatalf("update status = %d, want 204", update.StatusCode)
	}

	list = listTransactions(t, ts, client, "")
	txs := list["transactions"].([]any)
	got := txs[0].(map[string]any)
	if got["title"] != "Team lunch" {
		t.Errorf("title after update = %v", got["title"])
	}
	if got["amount"].(float64) != 300 {
		t.Errorf("amount after update = %v", got["amount"])
	}
	if got["updated_at"] == nil || got["updated_at"] == "" {
		t.Error("update should stamp updated_at")
	}

	missing := doJSON(t, client, http.MethodPut, ts.URL+"/api/transactions/no-such-id",
		`{"type":"expense","title":"x","amount":1,"category":"Food"}`)
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("update of missing id status = %d, want 404", missing.StatusCode)
	}

	// Deletion must be confirmed explicitly.
	unconfirmed := doJSON(t, client, http.MethodDelete, ts.URL+"/api/transactions/"+id, "")
	unconfirmed.Body.Close()
	if unconfirmed.StatusCode != http.StatusBadRequest {
		t.Errorf("unconfirmed delete status = %d, want 400", unconfirmed.StatusCode)
	}

	del := doJSON(t, client, http.MethodDelete, ts.URL+"/api/transactions/"+id+"?confirm=true", "")
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", del.StatusCode)
	}

	// Deleting the same id again succeeds: the end state is identical.
	again := doJSON(t, client, http.MethodDelete, ts.URL+"/api/transactions/"+id+"?confirm=true", "")
	again.Body.Close()
	if again.StatusCode != http.StatusNoContent {
		t.Errorf("repeat delete status = %d, want 204", again.StatusCode)
	}

	list = listTransactions(t, ts, client, "")
	if count := list["count"].(float64); count != 0 {
		t.Errorf("count after delete = %v, want 0", count)
	}
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"zero amount", `{"type":"expense","title":"x","amount":0,"category":"Food"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"type":"expense","title":"x","amount":-5,"category":"Food"}`, http.StatusUnprocessableEntity},
		{"empty title", `{"type":"expense","title":"  ","amount":5,"category":"Food"}`, http.StatusUnprocessableEntity},
		{"category from other type", `{"type":"income","title":"x","amount":5,"category":"Food"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"type":"expense","title":"x","amount":5,"category":"Food","date":"junk"}`, http.StatusUnprocessableEntity},
		{"malformed body", `{not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Post(ts.URL+"/api/transactions", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	createTransaction(t, ts, client, `{"type":"income","title":"June salary","amount":5000,"category":"Salary"}`)
	createTransaction(t, ts, client, `{"type":"expense","title":"Lunch","amount":250,"category":"Food"}`)
	createTransaction(t, ts, client, `{"type":"expense","title":"Bus pass","amount":80,"category":"Transport"}`)

	tests := []struct {
		query string
		want  float64
	}{
		{"", 3},
		{"?type=expense", 2},
		{"?type=income", 1},
		{"?type=all", 3},
		{"?search=LUNCH", 1},
		{"?search=sal", 1},
		{"?category=Transport", 1},
		{"?type=expense&category=Food", 1},
		{"?search=nothing-matches", 0},
	}
	for _, tt := range tests {
		list := listTransactions(t, ts, client, tt.query)
		if count := list["count"].(float64); count != tt.want {
			t.Errorf("query %q count = %v, want %v", tt.query, count, tt.want)
		}
	}

	// The category filter offers only values present in the data.
	list := listTransactions(t, ts, client, "")
	cats := list["categories"].([]any)
	if len(cats) != 3 {
		t.Errorf("categories = %v, want the 3 used ones", cats)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := newSignedUpClient(t, ts, "Alice", "alice@example.com")
	bob := newSignedUpClient(t, ts, "Bob", "bob@example.com")

	created := createTransaction(t, ts, alice, `{"type":"expense","title":"Lunch","amount":250,"category":"Food"}`)
	id := created["id"].(string)

	list := listTransactions(t, ts, bob, "")
	if count := list["count"].(float64); count != 0 {
		t.Fatalf("bob sees %v transactions, want 0", count)
	}

	update := doJSON(t, bob, http.MethodPut, ts.URL+"/api/transactions/"+id,
		`{"type":"expense","title":"hijack","amount":1,"category":"Food"}`)
	update.Body.Close()
	if update.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user update status = %d, want 404", update.StatusCode)
	}

	del := doJSON(t, bob, http.MethodDelete, ts.URL+"/api/transactions/"+id+"?confirm=true", "")
	del.Body.Close()
	if del.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", del.StatusCode)
	}

	list = listTransactions(t, ts, alice, "")
	if count := list["count"].(float64); count != 1 {
		t.Errorf("alice's transaction should survive, count = %v", count)
	}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)

	event, data := readSSEEvent(t, reader)
	if event != "snapshot" {
		t.Fatalf("first event = %q, want snapshot", event)
	}
	if !strings.Contains(data, `"count":0`) {
		t.Errorf("initial snapshot should be empty, got %s", data)
	}

	createTransaction(t, ts, client, `{"type":"expense","title":"Groceries","amount":900,"category":"Food"}`)

	_, data = readSSEEvent(t, reader)
	if !strings.Contains(data, "Groceries") {
		t.Errorf("mutation snapshot should carry the new transaction, got %s", data)
	}
}

func readSSEEvent(t *testing.T, reader *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		}
	}
}

func TestSessionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada Lovelace", "ada@example.com")

	resp, err := client.Get(ts.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["email"] != "ada@example.com" {
		t.Errorf("email = %q", out["email"])
	}
	if out["display_name"] != "Ada Lovelace" {
		t.Errorf("display_name = %q", out["display_name"])
	}
	if out["uid"] == "" {
		t.Error("uid should be set")
	}
}

func TestTransactionsPageRendersFilteredList(t *testing.T) {
	ts := newTestServer(t)
	client := newSignedUpClient(t, ts, "Ada", "ada@example.com")

	createTransaction(t, ts, client, `{"type":"income","title":"June salary","amount":5000,"category":"Salary"}`)
	createTransaction(t, ts, client, `{"type":"expense","title":"Lunch","amount":250,"category":"Food"}`)

	resp, err := client.Get(ts.URL + "/transactions?type=expense")
	if err != nil {
		t.Fatalf("GET /transactions: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "Lunch") {
		t.Error("filtered page should include the matching expense")
	}
	if strings.Contains(page, "June salary") {
		t.Error("filtered page should exclude the income row")
	}
	if !strings.Contains(page, fmt.Sprintf("%d of %d", 1, 2)) {
		t.Error("page should report the filtered count")
	}
}
