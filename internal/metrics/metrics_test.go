package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCreated(t *testing.T) {
	before := testutil.ToFloat64(TransactionsCreated.WithLabelValues("borrow"))
	RecordCreated("borrow")
	if got := testutil.ToFloat64(TransactionsCreated.WithLabelValues("borrow")); got != before+1 {
		t.Fatalf("want %v, got %v", before+1, got)
	}
}

func TestRecordRestoredIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(StockRestored.WithLabelValues("return"))
	RecordRestored("return", 0)
	RecordRestored("return", 3)
	if got := testutil.ToFloat64(StockRestored.WithLabelValues("return")); got != before+3 {
		t.Fatalf("want %v, got %v", before+3, got)
	}
}

func TestRecordTransitionAndRejection(t *testing.T) {
	RecordTransition("pending", "confirmed")
	if got := testutil.ToFloat64(StatusTransitions.WithLabelValues("pending", "confirmed")); got < 1 {
		t.Fatalf("transition not counted: %v", got)
	}
	before := testutil.ToFloat64(StockRejections)
	RecordStockRejection()
	if got := testutil.ToFloat64(StockRejections); got != before+1 {
		t.Fatalf("want %v, got %v", before+1, got)
	}
}
