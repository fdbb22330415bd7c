package sources

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/logger"
)

const boardPage = `<html><body><table>
	<thead><tr><th>Company</th><th>Open</th><th>Close</th><th>Price Band</th><th>Lot</th><th>Sub</th><th>Status</th></tr></thead>
	<tbody>
		<tr><td>Zen Industries Ltd</td><td>02 Mar 2026</td><td>04 Mar 2026</td><td>₹100-120</td><td>125</td><td>2.4x</td><td>Open</td></tr>
	</tbody>
</table></body></html>`

// flakyRenderer fails the first failures calls the way a crashed tab
// or dropped navigation does, then serves a fixed page.
type flakyRenderer struct {
	mu       sync.Mutex
	calls    int
	failures int
	html     string
}

func (f *flakyRenderer) Render(ctx context.Context, url, waitSelector string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n <= f.failures {
		return nil, errors.New("page load failed: net::ERR_CONNECTION_RESET")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

func (f *flakyRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testIPOBoard(r renderer, retries int) *ipoBoard {
	sc := config.SourceConfig{Name: "ipoboard", BaseURL: "http://board.test"}
	b := base{name: sc.Name, log: logger.Nop()}
	client := fetch.NewClient(
		fetch.WithRetries(retries),
		fetch.WithBackoff(time.Millisecond),
		fetch.WithTimeout(time.Second),
	)
	return newIPOBoard(sc, b, r, client, nil)
}

func TestIPOBoardRetriesFailedRenders(t *testing.T) {
	r := &flakyRenderer{failures: 2, html: boardPage}
	board := testIPOBoard(r, 2)

	res := board.Offerings(context.Background())

	if !res.Success {
		t.Fatalf("expected success after retried renders: %s", res.Err)
	}
	if r.callCount() != 3 {
		t.Fatalf("expected 3 render attempts, got %d", r.callCount())
	}
	if len(res.Data) != 1 || res.Data[0].CompanyName != "Zen Industries Ltd" {
		t.Fatalf("unexpected records %+v", res.Data)
	}
}

func TestIPOBoardSurfacesLastRenderError(t *testing.T) {
	r := &flakyRenderer{failures: 10, html: boardPage}
	board := testIPOBoard(r, 1)

	res := board.Offerings(context.Background())

	if res.Success {
		t.Fatalf("expected failure when every render attempt fails")
	}
	if r.callCount() != 2 {
		t.Fatalf("expected retries+1 = 2 render attempts, got %d", r.callCount())
	}
	if !strings.Contains(res.Err, "ERR_CONNECTION_RESET") {
		t.Fatalf("last attempt's error should surface, got %q", res.Err)
	}
}

func TestIPOBoardDoesNotRetryParseFailures(t *testing.T) {
	r := &flakyRenderer{html: "<html><body><p>under maintenance</p></body></html>"}
	board := testIPOBoard(r, 3)

	res := board.Offerings(context.Background())

	if res.Success {
		t.Fatalf("expected failure on a table-less page")
	}
	if r.callCount() != 1 {
		t.Fatalf("a structural parse failure must not re-render, got %d attempts", r.callCount())
	}
	if !strings.Contains(res.Err, "board table not found") {
		t.Fatalf("unexpected error %q", res.Err)
	}
}
