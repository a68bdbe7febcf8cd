package models

import (
	"encoding/json"
	"testing"
)

// ── OptFloat Tests ──

func TestOptFloat(t *testing.T) {
	if Unknown.Valid {
		t.Error("Unknown should not be valid")
	}
	if got := Known(2.5).Or(9); got != 2.5 {
		t.Errorf("Known(2.5).Or(9): got %v, want 2.5", got)
	}
	if got := Unknown.Or(9); got != 9 {
		t.Errorf("Unknown.Or(9): got %v, want 9", got)
	}
	if Unknown.Ptr() != nil {
		t.Error("Unknown.Ptr() should be nil")
	}
	if p := Known(4).Ptr(); p == nil || *p != 4 {
		t.Errorf("Known(4).Ptr(): got %v", p)
	}

	v := 3.0
	if got := FromPtr(&v); !got.Valid || got.Value != 3 {
		t.Errorf("FromPtr(&3): got %+v", got)
	}
	if got := FromPtr(nil); got.Valid {
		t.Errorf("FromPtr(nil): got %+v, want Unknown", got)
	}
}

func TestOptFloatString(t *testing.T) {
	tests := []struct {
		in   OptFloat
		want string
	}{
		{Known(1.005), "1.00"},
		{Known(-12.3456), "-12.35"},
		{Known(0), "0.00"},
		{Unknown, Placeholder},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%+v.String(): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptFloatJSON(t *testing.T) {
	type wrapper struct {
		A OptFloat `json:"a"`
		B OptFloat `json:"b"`
	}
	data, err := json.Marshal(wrapper{A: Known(12.5), B: Unknown})
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	if string(data) != `{"a":12.5,"b":null}` {
		t.Errorf("Marshal: got %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"a":null,"b":-3}`), &w); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if w.A.Valid {
		t.Errorf("A: got %+v, want Unknown", w.A)
	}
	if !w.B.Valid || w.B.Value != -3 {
		t.Errorf("B: got %+v, want Known(-3)", w.B)
	}

	if err := json.Unmarshal([]byte(`{"a":"x"}`), &w); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

// ── Metrics Tests ──

func TestRawMetricsDecodeMissingFields(t *testing.T) {
	var raw RawMetrics
	body := `{"ticker":"RY.TO","price":131.2,"target_price":null,"num_analysts":14,"recommendation":"buy"}`
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("json.Unmarshal(RawMetrics) error: %v", err)
	}
	if raw.Price == nil || *raw.Price != 131.2 {
		t.Errorf("Price: got %v, want 131.2", raw.Price)
	}
	if raw.TargetPrice != nil {
		t.Errorf("TargetPrice: got %v, want nil", *raw.TargetPrice)
	}
	if raw.PERatio != nil {
		t.Error("PERatio should be nil when absent")
	}
	if raw.NumAnalysts == nil || *raw.NumAnalysts != 14 {
		t.Errorf("NumAnalysts: got %v, want 14", raw.NumAnalysts)
	}
}

func TestRankedCandidateJSONIsFlat(t *testing.T) {
	c := RankedCandidate{
		StockMetricRecord: StockMetricRecord{
			Ticker:         "AAPL",
			Recommendation: RecBuy,
			UpsidePct:      Known(12),
		},
		Score:  42.5,
		Signal: "Undervalued | Buy",
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("json.Marshal(RankedCandidate) error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if m["ticker"] != "AAPL" {
		t.Errorf("ticker: got %v, want AAPL", m["ticker"])
	}
	if m["score"] != 42.5 {
		t.Errorf("score: got %v, want 42.5", m["score"])
	}
	if m["upside_pct"] != 12.0 {
		t.Errorf("upside_pct: got %v, want 12", m["upside_pct"])
	}
	if m["pe_ratio"] != nil {
		t.Errorf("pe_ratio: got %v, want null", m["pe_ratio"])
	}
	if m["recommendation"] != "buy" {
		t.Errorf("recommendation: got %v, want buy", m["recommendation"])
	}
}
