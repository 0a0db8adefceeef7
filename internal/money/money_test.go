package money

import (
	"errors"
	"math"
	"testing"
)

func TestConvertRoundTrip(t *testing.T) {
	c := NewConverter()

	amounts := []float64{0.01, 1, 42.5, 500, 1000000}
	for _, amount := range amounts {
		inr, err := c.Convert(amount, "USD", "INR")
		if err != nil {
			t.Fatalf("USD->INR: %v", err)
		}
		back, err := c.Convert(inr, "INR", "USD")
		if err != nil {
			t.Fatalf("INR->USD: %v", err)
		}
		if math.Abs(back-amount) > 1e-9*amount {
			t.Errorf("round trip of %v came back as %v", amount, back)
		}
	}
}

func TestConvertSameCurrency(t *testing.T) {
	c := NewConverter()
	got, err := c.Convert(123.45, "INR", "INR")
	if err != nil {
		t.Fatal(err)
	}
	if got != 123.45 {
		t.Errorf("expected identity conversion, got %v", got)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := NewConverter()
	if _, err := c.Convert(1, "XXX", "INR"); !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := c.Convert(1, "USD", "XXX"); !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{0, "INR", "₹0.00"},
		{1000, "USD", "$1,000.00"},
		{500, "INR", "₹500.00"},
		{1234567.891, "USD", "$1,234,567.89"},
	}
	for _, tc := range cases {
		if got := Format(tc.amount, tc.code); got != tc.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestToBaseline(t *testing.T) {
	c := NewConverter()
	got, err := c.ToBaseline(10, "USD")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := c.Convert(10, "USD", "INR")
	if got != want {
		t.Errorf("ToBaseline(10, USD) = %v, want %v", got, want)
	}
}
