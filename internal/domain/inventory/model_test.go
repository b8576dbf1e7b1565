package inventory

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		requested, available int
		consumed             int
		clamped              bool
	}{
		{10, 3, 3, true},
		{3, 3, 3, false},
		{2, 5, 2, false},
		{4, 0, 0, true},
		{1, -2, 0, true},
	}
	for _, tc := range cases {
		got, clamped := Clamp(tc.requested, tc.available)
		if got != tc.consumed || clamped != tc.clamped {
			t.Fatalf("Clamp(%d,%d) = %d,%v want %d,%v", tc.requested, tc.available, got, clamped, tc.consumed, tc.clamped)
		}
	}
}

func TestIsLowIsOut(t *testing.T) {
	if !IsLow(Item{Quantity: 5, MinQuantity: 5}) {
		t.Fatalf("quantity == min must be low")
	}
	if IsLow(Item{Quantity: 6, MinQuantity: 5}) {
		t.Fatalf("quantity > min must not be low")
	}
	if !IsOut(Item{Quantity: 0}) || IsOut(Item{Quantity: 1}) {
		t.Fatalf("IsOut must be quantity == 0")
	}
	// sin stock y mínimo 0 => también low
	if !IsLow(Item{Quantity: 0, MinQuantity: 0}) {
		t.Fatalf("out of stock must be low")
	}
}
