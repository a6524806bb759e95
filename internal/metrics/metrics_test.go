package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

func TestRecorder_ObserveRound(t *testing.T) {
	r := New()
	issues := []types.ValidationIssue{
		{Severity: types.SeverityError, Category: types.CategoryMissingFile},
		{Severity: types.SeverityError, Category: types.CategoryMissingFile},
		{Severity: types.SeverityWarning, Category: types.CategoryMissingImplementation},
	}
	r.ObserveRound(false, 0.5, issues, 20*time.Millisecond)
	r.ObserveRound(true, 1, nil, time.Millisecond)
	r.SetRegisteredFiles(7)

	if got := testutil.ToFloat64(r.rounds.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed rounds = %v", got)
	}
	if got := testutil.ToFloat64(r.rounds.WithLabelValues("passed")); got != 1 {
		t.Fatalf("passed rounds = %v", got)
	}
	if got := testutil.ToFloat64(r.issues.WithLabelValues("error", string(types.CategoryMissingFile))); got != 2 {
		t.Fatalf("missing file issues = %v", got)
	}
	if got := testutil.ToFloat64(r.compliance); got != 1 {
		t.Fatalf("compliance = %v", got)
	}
	if got := testutil.ToFloat64(r.registeredFiles); got != 7 {
		t.Fatalf("registered files = %v", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveRound(true, 1, nil, time.Second)
	r.SetRegisteredFiles(3)
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveRound(true, 1, nil, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `roundcheck_round_total{outcome="passed"} 1`) {
		t.Fatalf("metrics output missing round counter:\n%s", body)
	}
}
