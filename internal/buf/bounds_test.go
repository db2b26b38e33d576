package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	tests := []struct {
		a, b int
		want int
		ok   bool
	}{
		{4, 16, 64, true},
		{0, math.MaxInt, 0, true},
		{math.MaxInt/2 + 1, 2, 0, false},
		{-1, 8, 0, false},
		{8, -1, 0, false},
	}
	for _, tt := range tests {
		got, ok := MulOverflowSafe(tt.a, tt.b)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("MulOverflowSafe(%d,%d)=%d,%v want %d,%v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckSpan(t *testing.T) {
	end, err := CheckSpan(65535, 1, 65534)
	if err != nil || end != 65535 {
		t.Fatalf("CheckSpan full arena = %d, %v", end, err)
	}
	if _, err := CheckSpan(65535, 1, 65535); err == nil {
		t.Fatalf("CheckSpan should reject a span past the limit")
	}
	if _, err := CheckSpan(10, -1, 2); err == nil {
		t.Fatalf("CheckSpan should reject negative offset")
	}
	if _, err := CheckSpan(10, 2, -2); err == nil {
		t.Fatalf("CheckSpan should reject negative length")
	}
	if _, err := CheckSpan(math.MaxInt, math.MaxInt, 1); err == nil {
		t.Fatalf("CheckSpan should reject overflowing spans")
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
