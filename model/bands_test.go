package model

import (
	"reflect"
	"testing"
)

func TestInitialBands(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{0}},
		{2, []int{0, 1}},
		{3, []int{0, 2, 3}},
		{4, []int{0, 2, 4, 5}},
		{5, []int{0, 2, 4, 6, 7}},
	}
	for _, tc := range tests {
		if got := InitialBands(tc.n); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("InitialBands(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestTopBandCoversDefaultLayout(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 5},
		{5, 7},
	}
	for _, tc := range tests {
		if got := TopBand(tc.n); got != tc.want {
			t.Fatalf("TopBand(%d) = %d, want %d", tc.n, got, tc.want)
		}
		for _, band := range InitialBands(tc.n) {
			if band > TopBand(tc.n) {
				t.Fatalf("InitialBands(%d) has band %d above TopBand %d", tc.n, band, TopBand(tc.n))
			}
		}
	}
}
