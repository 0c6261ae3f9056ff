package payments

import "testing"

func TestCents(t *testing.T) {
	cases := map[float64]int64{
		0:     0,
		4.5:   450,
		12:    1200,
		19.99: 1999,
		0.015: 2,
	}
	for in, want := range cases {
		if got := Cents(in); got != want {
			t.Fatalf("Cents(%v) = %d, want %d", in, got, want)
		}
	}
}
