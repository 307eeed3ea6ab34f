package facematch

import (
	"errors"
	"math"
	"testing"
)

func enc(v ...float64) Encoding { return Encoding(v) }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMatch(t *testing.T) {
	known := map[string]Encoding{
		"EMP001": enc(0, 0),
		"EMP002": enc(1, 0),
		"EMP003": enc(0, 1),
	}

	tests := []struct {
		name         string
		unknown      Encoding
		tolerance    float64
		wantID       string
		wantDistance float64
		wantConf     float64
	}{
		{"exact match", enc(0, 0), 0.6, "EMP001", 0, 100},
		{"closest within tolerance", enc(0.9, 0), 0.6, "EMP002", 0.1, (1 - 0.1/0.6) * 100},
		{"equidistant picks lowest key", enc(0.5, 0.5), 0.8, "EMP001", math.Sqrt(0.5), (1 - math.Sqrt(0.5)/0.8) * 100},
		{"outside tolerance", enc(5, 5), 0.6, "", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.unknown, known, tt.tolerance)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.EmployeeID != tt.wantID {
				t.Errorf("EmployeeID = %q, want %q", got.EmployeeID, tt.wantID)
			}
			if !approx(got.Distance, tt.wantDistance) {
				t.Errorf("Distance = %v, want %v", got.Distance, tt.wantDistance)
			}
			if !approx(got.Confidence, tt.wantConf) {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestMatchNeverExceedsTolerance(t *testing.T) {
	known := map[string]Encoding{"A": enc(0, 0, 0), "B": enc(1, 1, 1)}
	probes := []Encoding{enc(0.3, 0, 0), enc(0.5, 0.5, 0.5), enc(0.7, 0.7, 0.7), enc(2, 2, 2)}
	for _, tol := range []float64{0.2, 0.4, 0.6, 1.0} {
		for _, p := range probes {
			got, err := Match(p, known, tol)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Matched() && got.Distance > tol {
				t.Errorf("tolerance %v: matched %s at distance %v", tol, got.EmployeeID, got.Distance)
			}
			if got.Confidence < 0 || got.Confidence > 100 {
				t.Errorf("confidence %v out of range", got.Confidence)
			}
		}
	}
}

func TestMatchTieBreakLowestKey(t *testing.T) {
	known := map[string]Encoding{
		"EMP009": enc(1, 0),
		"EMP002": enc(-1, 0),
		"EMP005": enc(0, 1),
	}
	for range 20 {
		got, err := Match(enc(0, 0), known, 1.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.EmployeeID != "EMP002" {
			t.Fatalf("tie resolved to %q, want EMP002", got.EmployeeID)
		}
	}
}

func TestMatchEmptyKnown(t *testing.T) {
	got, err := Match(enc(1, 2), nil, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != NoMatch {
		t.Errorf("got %+v, want NoMatch", got)
	}
}

func TestMatchShapeMismatch(t *testing.T) {
	t.Run("skips mismatched entry", func(t *testing.T) {
		known := map[string]Encoding{"BAD": enc(0, 0, 0), "GOOD": enc(0, 0)}
		got, err := Match(enc(0, 0), known, 0.6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.EmployeeID != "GOOD" {
			t.Errorf("EmployeeID = %q, want GOOD", got.EmployeeID)
		}
	})

	t.Run("all mismatched", func(t *testing.T) {
		known := map[string]Encoding{"A": enc(0, 0, 0)}
		_, err := Match(enc(0, 0), known, 0.6)
		if !errors.Is(err, ErrShapeMismatch) {
			t.Fatalf("err = %v, want ErrShapeMismatch", err)
		}
		var sme *ShapeMismatchError
		if !errors.As(err, &sme) {
			t.Fatalf("expected *ShapeMismatchError in %v", err)
		}
		if sme.EmployeeID != "A" || sme.Want != 2 || sme.Got != 3 {
			t.Errorf("unexpected details: %+v", sme)
		}
	})

	t.Run("empty unknown", func(t *testing.T) {
		_, err := Match(nil, map[string]Encoding{"A": enc(1)}, 0.6)
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("err = %v, want ErrShapeMismatch", err)
		}
	})
}

func TestMatchInvalidTolerance(t *testing.T) {
	for _, tol := range []float64{0, -0.1, 1.5} {
		if _, err := Match(enc(0), map[string]Encoding{"A": enc(0)}, tol); !errors.Is(err, ErrInvalidTolerance) {
			t.Errorf("tolerance %v: err = %v, want ErrInvalidTolerance", tol, err)
		}
	}
}

func TestMatchBatch(t *testing.T) {
	known := map[string]Encoding{"EMP001": enc(0, 0), "EMP002": enc(3, 3)}
	unknowns := []Encoding{enc(0, 0.1), enc(1, 2, 3), enc(3, 3)}

	results := MatchBatch(unknowns, known, 0.6)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[0].Result.EmployeeID != "EMP001" {
		t.Errorf("slot 0 = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrShapeMismatch) {
		t.Errorf("slot 1 err = %v, want ErrShapeMismatch", results[1].Err)
	}
	if results[2].Err != nil || results[2].Result.EmployeeID != "EMP002" {
		t.Errorf("slot 2 = %+v", results[2])
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		distance, tolerance, want float64
	}{
		{0, 0.6, 100},
		{0.3, 0.6, 50},
		{0.6, 0.6, 0},
		{0.9, 0.6, 0},
		{0.1, 0, 0},
	}
	for _, tt := range tests {
		if got := Confidence(tt.distance, tt.tolerance); !approx(got, tt.want) {
			t.Errorf("Confidence(%v, %v) = %v, want %v", tt.distance, tt.tolerance, got, tt.want)
		}
	}
}

func TestEncodingConversions(t *testing.T) {
	e := FromFloat32([]float32{0.5, -1.25})
	if !approx(e[0], 0.5) || !approx(e[1], -1.25) {
		t.Errorf("FromFloat32 = %v", e)
	}
	c := e.Clone()
	c[0] = 9
	if e[0] == 9 {
		t.Error("Clone shares memory")
	}
	if f := e.Float32(); f[1] != -1.25 {
		t.Errorf("Float32 = %v", f)
	}
}
