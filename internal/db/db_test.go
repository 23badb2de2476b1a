package db

import (
	"context"
	"math"
	"testing"
)

func TestPoolSize(t *testing.T) {
	cases := []struct {
		in     int
		want   int32
		wantOK bool
	}{
		{0, 0, false},
		{-5, 0, false},
		{10, 10, true},
		{MaxPoolConns, MaxPoolConns, true},
		{math.MaxInt, MaxPoolConns, true},
	}
	for _, tc := range cases {
		got, ok := poolSize(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("poolSize(%d) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestConnect_RequiresDSN(t *testing.T) {
	if _, err := Connect(context.Background(), "", 0); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
