package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens struct{}

func (staticTokens) Token() (string, error) { return "test-token", nil }

func TestFetchTransactions_Pagination(t *testing.T) {
	// Three pages: the first two carry a continuation key, the last omits it.
	pages := []struct {
		txs  []RawTransaction
		next string
	}{
		{txs: []RawTransaction{{BookingDate: "2024-01-01"}, {BookingDate: "2024-01-02"}}, next: "page-2"},
		{txs: []RawTransaction{{BookingDate: "2024-01-03"}}, next: "page-3"},
		{txs: []RawTransaction{{BookingDate: "2024-01-04"}}},
	}

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acc-1/transactions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("date_from") != "2024-01-01" || q.Get("date_to") != "2024-01-04" || q.Get("strategy") != "default" {
			t.Errorf("Unexpected query: %v", q)
		}
		if calls == 0 {
			if q.Get("continuation_key") != "" {
				t.Errorf("First call must not carry a continuation key, got %q", q.Get("continuation_key"))
			}
		} else if got, want := q.Get("continuation_key"), pages[calls-1].next; got != want {
			t.Errorf("continuation_key = %q, want %q", got, want)
		}

		page := pages[calls]
		calls++
		resp := map[string]any{"transactions": page.txs}
		if page.next != "" {
			resp["continuation_key"] = page.next
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{})
	txs, err := client.FetchTransactions(context.Background(), "acc-1", "2024-01-01", "2024-01-04")
	if err != nil {
		t.Fatalf("FetchTransactions failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
	if len(txs) != len(want) {
		t.Fatalf("Expected %d transactions, got %d", len(want), len(txs))
	}
	for i, tx := range txs {
		if tx.BookingDate != want[i] {
			t.Errorf("Transaction %d booking date = %q, want %q", i, tx.BookingDate, want[i])
		}
	}
}

func TestFetchTransactions_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{})
	if _, err := client.FetchTransactions(context.Background(), "acc-1", "2024-01-01", "2024-01-04"); err == nil {
		t.Error("Expected error on non-2xx response")
	}
}

func TestProbeSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions/live-session" {
			fmt.Fprint(w, `{"status":"AUTHORIZED"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{})

	if err := client.ProbeSession(context.Background(), "live-session"); err != nil {
		t.Errorf("Expected live session probe to succeed, got %v", err)
	}
	if err := client.ProbeSession(context.Background(), "dead-session"); err == nil {
		t.Error("Expected dead session probe to fail")
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["code"] != "auth-code-1" {
			t.Errorf("code = %q, want %q", body["code"], "auth-code-1")
		}
		fmt.Fprint(w, `{"session_id":"sess-1","accounts":[{"uid":"acc-1","account_id":{"iban":"EE382200221020145685"}}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{})
	session, err := client.CreateSession(context.Background(), "auth-code-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", session.SessionID, "sess-1")
	}
	if len(session.Accounts) != 1 || session.Accounts[0].AccountID.IBAN != "EE382200221020145685" {
		t.Errorf("Unexpected accounts: %+v", session.Accounts)
	}
}
