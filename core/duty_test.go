package core

import "testing"

func TestPercentFromSample(t *testing.T) {
	cases := []struct {
		sample AnalogSample
		want   PowerPercent
	}{
		{0, 0},
		{100, 0},
		{205, 0},
		{220, 0}, // low threshold saturates
		{221, 1},
		{300, 11},
		{512, 37},
		{600, 48},
		{800, 72},
		{940, 89},
		{941, 100}, // high threshold saturates
		{1000, 100},
		{1023, 100},
	}

	for _, tc := range cases {
		if got := PercentFromSample(tc.sample); got != tc.want {
			t.Errorf("PercentFromSample(%d) = %d, want %d", tc.sample, got, tc.want)
		}
	}
}

func TestPercentFromSampleMonotonic(t *testing.T) {
	prev := PercentFromSample(0)
	for s := AnalogSample(1); s <= SampleMax; s++ {
		got := PercentFromSample(s)
		if got < prev {
			t.Fatalf("PercentFromSample(%d) = %d, below PercentFromSample(%d) = %d", s, got, s-1, prev)
		}
		prev = got
	}
}

func TestPercentFromSampleBounded(t *testing.T) {
	for s := AnalogSample(0); s <= SampleMax; s++ {
		if got := PercentFromSample(s); got > 100 {
			t.Fatalf("PercentFromSample(%d) = %d, above 100", s, got)
		}
	}
}
