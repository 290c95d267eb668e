package app

import "testing"

func TestCycleWrapsBothWays(t *testing.T) {
	cases := []struct{ cur, n, delta, want int }{
		{0, 9, 1, 1},
		{8, 9, 1, 0},
		{0, 9, -1, 8},
		{4, 9, -1, 3},
		{0, 1, -1, 0},
		{3, 0, 1, 0},
	}
	for _, tc := range cases {
		if got := cycle(tc.cur, tc.n, tc.delta); got != tc.want {
			t.Fatalf("cycle(%d, %d, %d) = %d, want %d", tc.cur, tc.n, tc.delta, got, tc.want)
		}
	}
}

func TestNextName(t *testing.T) {
	names := []string{"grayscale", "plasma", "viridis"}
	if got := next(names, "plasma"); got != "viridis" {
		t.Fatalf("next after plasma = %q", got)
	}
	if got := next(names, "viridis"); got != "grayscale" {
		t.Fatalf("next after viridis = %q", got)
	}
	if got := next(names, "unknown"); got != "grayscale" {
		t.Fatalf("next after unknown = %q", got)
	}
	if got := next(nil, "x"); got != "x" {
		t.Fatalf("next over no names = %q", got)
	}
}
