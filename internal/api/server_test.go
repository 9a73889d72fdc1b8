package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/resolvd-io/resolvd/internal/escalation"
	"github.com/resolvd-io/resolvd/internal/logbuf"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

type fakeResolver struct {
	lastTicket protocol.Ticket
	out        protocol.FinalOutput
}

func (f *fakeResolver) Run(_ context.Context, t protocol.Ticket) protocol.FinalOutput {
	f.lastTicket = t
	return f.out
}

type fakeLister struct {
	rows   []protocol.EscalationRow
	filter escalation.Filter
}

func (f *fakeLister) List(filter escalation.Filter) ([]protocol.EscalationRow, error) {
	f.filter = filter
	return f.rows, nil
}

func (f *fakeLister) Count(filter escalation.Filter) (int, error) {
	f.filter = filter
	return len(f.rows), nil
}

func newTestServer(t *testing.T, resolver Resolver, escs EscalationLister, logs LogQuerier, key string) *httptest.Server {
	t.Helper()
	srv := NewServer(resolver, escs, Config{Host: "127.0.0.1", Port: 0, Key: key}, slog.New(slog.DiscardHandler), logs)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeResolver{}, nil, nil, "")

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestResolveTicket(t *testing.T) {
	resolver := &fakeResolver{out: protocol.FinalOutput{
		Category: "technical",
		Approved: true,
		Score:    0.9,
		Feedback: "approved",
		Draft:    "Try resetting your password.",
		Context:  []string{},
	}}
	ts := newTestServer(t, resolver, nil, nil, "")

	body := `{"subject":"Cannot log in","description":"Password reset loop"}`
	resp, err := http.Post(ts.URL+"/api/tickets", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/tickets: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out protocol.FinalOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Category != "technical" || !out.Approved {
		t.Errorf("output = %+v", out)
	}
	if resolver.lastTicket.Subject != "Cannot log in" {
		t.Errorf("ticket subject = %q", resolver.lastTicket.Subject)
	}
}

func TestResolveTicketValidation(t *testing.T) {
	ts := newTestServer(t, &fakeResolver{}, nil, nil, "")

	for name, body := range map[string]string{
		"bad json":     "{not json",
		"empty ticket": `{"subject":"","description":""}`,
	} {
		resp, err := http.Post(ts.URL+"/api/tickets", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, resp.StatusCode)
		}
	}
}

func TestListEscalations(t *testing.T) {
	lister := &fakeLister{rows: []protocol.EscalationRow{
		{ID: "e1", RunID: "r1", Subject: "Refund", Category: "billing"},
	}}
	ts := newTestServer(t, &fakeResolver{}, lister, nil, "")

	resp, err := http.Get(ts.URL + "/api/escalations?category=billing&limit=5")
	if err != nil {
		t.Fatalf("GET /api/escalations: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rows []protocol.EscalationRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "e1" {
		t.Errorf("rows = %v", rows)
	}
	if lister.filter.Category == nil || *lister.filter.Category != protocol.CategoryBilling {
		t.Errorf("filter category = %v", lister.filter.Category)
	}
	if lister.filter.Limit != 5 {
		t.Errorf("filter limit = %d", lister.filter.Limit)
	}
}

func TestListEscalationsBadParams(t *testing.T) {
	ts := newTestServer(t, &fakeResolver{}, &fakeLister{}, nil, "")

	for name, query := range map[string]string{
		"unknown category": "?category=mystery",
		"bad since":        "?since=yesterday",
	} {
		resp, err := http.Get(ts.URL + "/api/escalations" + query)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, resp.StatusCode)
		}
	}
}

func TestCountEscalations(t *testing.T) {
	lister := &fakeLister{rows: []protocol.EscalationRow{{ID: "a"}, {ID: "b"}}}
	ts := newTestServer(t, &fakeResolver{}, lister, nil, "")

	since := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	resp, err := http.Get(ts.URL + "/api/escalations/count?since=" + since)
	if err != nil {
		t.Fatalf("GET /api/escalations/count: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]int
	json.NewDecoder(resp.Body).Decode(&body)
	if body["count"] != 2 {
		t.Errorf("count = %d", body["count"])
	}
	if lister.filter.Since.IsZero() {
		t.Error("since filter not applied")
	}
}

func TestGetLogs(t *testing.T) {
	ring := logbuf.NewRing(10)
	ring.Append(logbuf.Entry{Time: time.Now(), Level: "INFO", Message: "run started", RunID: "r1"})
	ring.Append(logbuf.Entry{Time: time.Now(), Level: "ERROR", Message: "draft failed", RunID: "r2"})
	ts := newTestServer(t, &fakeResolver{}, nil, ring, "")

	resp, err := http.Get(ts.URL + "/api/logs?level=error")
	if err != nil {
		t.Fatalf("GET /api/logs: %v", err)
	}
	defer resp.Body.Close()

	var entries []logbuf.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "draft failed" {
		t.Errorf("entries = %v", entries)
	}
}

func TestGetLogsByRunID(t *testing.T) {
	ring := logbuf.NewRing(10)
	ring.Append(logbuf.Entry{Time: time.Now(), Level: "INFO", Message: "a", RunID: "r1"})
	ring.Append(logbuf.Entry{Time: time.Now(), Level: "INFO", Message: "b", RunID: "r2"})
	ts := newTestServer(t, &fakeResolver{}, nil, ring, "")

	resp, err := http.Get(ts.URL + "/api/logs?run_id=r2")
	if err != nil {
		t.Fatalf("GET /api/logs: %v", err)
	}
	defer resp.Body.Close()

	var entries []logbuf.Entry
	json.NewDecoder(resp.Body).Decode(&entries)
	if len(entries) != 1 || entries[0].RunID != "r2" {
		t.Errorf("entries = %v", entries)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, &fakeResolver{}, nil, nil, "secret")

	// Health is public.
	resp, _ := http.Get(ts.URL + "/api/health")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	// Missing token.
	resp, err := http.Post(ts.URL+"/api/tickets", "application/json", strings.NewReader(`{"subject":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-token status = %d, want 401", resp.StatusCode)
	}

	// Correct token.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/tickets", strings.NewReader(`{"subject":"x"}`))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with-token status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &fakeResolver{}, nil, nil, "secret")

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/tickets", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
