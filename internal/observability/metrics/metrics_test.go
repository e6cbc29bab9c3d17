package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineCounters(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	p := New(reg)

	p.Notice("sent")
	p.Notice("sent")
	p.Lot("sent", 3)
	p.Lot("filtered", 0)
	p.Throttled()
	p.CycleDone(time.Now())

	if got := testutil.ToFloat64(p.Notices.WithLabelValues("sent")); got != 2 {
		t.Fatalf("notices sent = %v", got)
	}
	if got := testutil.ToFloat64(p.Lots.WithLabelValues("sent")); got != 3 {
		t.Fatalf("lots sent = %v", got)
	}
	if got := testutil.ToFloat64(p.Throttles); got != 1 {
		t.Fatalf("throttles = %v", got)
	}
	if got := testutil.ToFloat64(p.Cycles); got != 1 {
		t.Fatalf("cycles = %v", got)
	}
}

func TestNilPipelineIsNoop(t *testing.T) {
	t.Parallel()
	var p *Pipeline
	p.Notice("sent")
	p.Lot("sent", 1)
	p.Throttled()
	p.Fetched(time.Second)
	p.CycleDone(time.Now())
}
