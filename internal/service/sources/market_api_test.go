package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"IPOPulse/internal/service/quota"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/logger"
)

// pagedServer serves one offering per page, three pages total, the way
// the external API's limit=1 constraint forces it.
func pagedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		fmt.Fprintf(w, `{
			"meta": {"totalPages": 3, "page": %d, "limit": 1},
			"items": [{
				"symbol": "SYM%d",
				"name": "Company %d Ltd",
				"bidding_start_date": "2026-03-02",
				"min_price": 100,
				"max_price": 120,
				"lot_size": 125,
				"status": "open"
			}]
		}`, page, page, page)
	}))
}

func testMarketAPI(t *testing.T, baseURL string, gate *quota.Gate) *marketAPI {
	t.Helper()
	t.Setenv("TEST_MARKET_KEY", "secret")

	sc := config.SourceConfig{
		Name:      "market-api",
		BaseURL:   baseURL,
		APIKeyEnv: "TEST_MARKET_KEY",
	}
	b := base{name: sc.Name, log: logger.Nop()}
	client := fetch.NewClient(fetch.WithRetries(0), fetch.WithBackoff(time.Millisecond))
	return newMarketAPI(sc, b, client, gate)
}

func TestMarketAPIPaginatesAllPages(t *testing.T) {
	srv := pagedServer(t)
	defer srv.Close()

	m := testMarketAPI(t, srv.URL, nil)
	res := m.Offerings(context.Background())

	if !res.Success {
		t.Fatalf("expected success: %s", res.Err)
	}
	if len(res.Data) != 3 {
		t.Fatalf("expected 3 records across pages, got %d", len(res.Data))
	}
	if res.Data[0].Symbol != "SYM1" || res.Data[2].Symbol != "SYM3" {
		t.Fatalf("unexpected page order: %+v", res.Data)
	}
	if res.Data[0].PriceRange != "₹100-120" {
		t.Fatalf("unexpected price range %q", res.Data[0].PriceRange)
	}
}

func TestMarketAPIQuotaStopsPaginationPartialSuccess(t *testing.T) {
	srv := pagedServer(t)
	defer srv.Close()

	gate := quota.NewGate(2, time.UTC, nil)
	m := testMarketAPI(t, srv.URL, gate)

	res := m.Offerings(context.Background())

	if !res.Success {
		t.Fatalf("mid-pagination exhaustion must be a partial success: %s", res.Err)
	}
	if len(res.Data) != 2 {
		t.Fatalf("expected 2 records before quota ran out, got %d", len(res.Data))
	}
	if gate.CanRequest() {
		t.Fatalf("budget should be exhausted")
	}
}

func TestMarketAPIQuotaExhaustedBeforeFirstPage(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		fmt.Fprint(w, `{"meta": {"totalPages": 1, "page": 1, "limit": 1}, "items": []}`)
	}))
	defer srv.Close()

	gate := quota.NewGate(1, time.UTC, nil)
	if !gate.Consume() {
		t.Fatalf("first consume should succeed")
	}

	m := testMarketAPI(t, srv.URL, gate)
	res := m.Offerings(context.Background())

	if !res.Success {
		t.Fatalf("exhaustion before the first page is a planned stop, not a failure: %s", res.Err)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected empty partial result, got %d records", len(res.Data))
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 0 {
		t.Fatalf("no request should leave the process, saw %d", requests)
	}
}

func TestMarketAPIHealthReadSingleRequest(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{
			"meta": {"totalPages": 10, "page": %d, "limit": 1},
			"items": [{"symbol": "SYM%d", "name": "Company %d Ltd", "status": "open"}]
		}`, page, page, page)
	}))
	defer srv.Close()

	gate := quota.NewGate(25, time.UTC, nil)
	m := testMarketAPI(t, srv.URL, gate)

	res := m.HealthRead(context.Background())

	if !res.Success {
		t.Fatalf("expected success: %s", res.Err)
	}
	mu.Lock()
	got := requests
	mu.Unlock()
	if got != 1 {
		t.Fatalf("health read must stop at page 1 of 10, saw %d requests", got)
	}
	if used := gate.Status().Used; used != 1 {
		t.Fatalf("health read must cost one quota unit, used %d", used)
	}
}

func TestMarketAPIMissingCredential(t *testing.T) {
	srv := pagedServer(t)
	defer srv.Close()

	sc := config.SourceConfig{Name: "market-api", BaseURL: srv.URL, APIKeyEnv: "UNSET_KEY_ENV"}
	b := base{name: sc.Name, log: logger.Nop()}
	client := fetch.NewClient(fetch.WithRetries(0))
	m := newMarketAPI(sc, b, client, nil)

	res := m.Offerings(context.Background())
	if res.Success {
		t.Fatalf("expected failure without credential")
	}
	if res.Err == "" {
		t.Fatalf("expected error message")
	}
	if len(res.Data) != 0 {
		t.Fatalf("failure must carry empty data, got %d", len(res.Data))
	}
}

func TestMarketAPISentimentUnsupported(t *testing.T) {
	srv := pagedServer(t)
	defer srv.Close()

	m := testMarketAPI(t, srv.URL, nil)
	res := m.SentimentSignals(context.Background())

	if !res.Success {
		t.Fatalf("unsupported operation is absence, not failure: %s", res.Err)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected no sentiment records, got %d", len(res.Data))
	}
}

func TestMarketAPIFetchByType(t *testing.T) {
	var mu sync.Mutex
	var statuses []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		statuses = append(statuses, r.URL.Query().Get("status"))
		mu.Unlock()
		fmt.Fprint(w, `{"meta": {"totalPages": 1, "page": 1, "limit": 1}, "items": []}`)
	}))
	defer srv.Close()

	m := testMarketAPI(t, srv.URL, nil)
	res := m.FetchByType(context.Background(), quota.FetchUpcoming)

	if !res.Success {
		t.Fatalf("expected success: %s", res.Err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(statuses) != 1 || statuses[0] != "upcoming" {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}
