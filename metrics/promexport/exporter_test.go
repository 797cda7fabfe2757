package promexport

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storyforge/authkit"
)

func TestCollectorExposesCounters(t *testing.T) {
	m := authkit.NewMetrics(true)
	m.Record(authkit.MetricLoginSuccess)
	m.Record(authkit.MetricLoginSuccess)
	m.Record(authkit.MetricRefreshFailure)

	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(m)); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"authkit_login_success_total 2",
		"authkit_refresh_failure_total 1",
		"authkit_session_created_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestDisabledMetricsStayZero(t *testing.T) {
	m := authkit.NewMetrics(false)
	m.Record(authkit.MetricLoginSuccess)

	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(m)); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "authkit_login_success_total 0") {
		t.Error("disabled metrics should report zero")
	}
}
