package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestObserveBlockCountsFutureTimestamps(t *testing.T) {
	m := New()
	m.ObserveBlock("base", 250)
	m.ObserveBlock("base", -40)
	m.ObserveBlock("base", 0)
	m.ObservePollError("base")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)

	for _, want := range []string{
		`tsaudit_blocks_observed_total{chain="base"} 3`,
		`tsaudit_future_timestamps_total{chain="base"} 2`,
		`tsaudit_last_delta_milliseconds{chain="base"} 0`,
		`tsaudit_poll_errors_total{chain="base"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}
