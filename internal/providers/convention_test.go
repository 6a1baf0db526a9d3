package providers

import "testing"

func TestParseConvention(t *testing.T) {
	for _, s := range []string{"higher", "distance"} {
		if _, err := ParseConvention(s); err != nil {
			t.Fatalf("ParseConvention(%q) returned error: %v", s, err)
		}
	}
	for _, s := range []string{"", "lower", "cosine"} {
		if _, err := ParseConvention(s); err == nil {
			t.Fatalf("ParseConvention(%q) should fail", s)
		}
	}
}

func TestConventionAccepts(t *testing.T) {
	cases := []struct {
		conv      ScoreConvention
		score     float64
		tolerance float64
		want      bool
	}{
		{ConventionHigher, 0.7, 0.6, true},
		{ConventionHigher, 0.6, 0.6, true},
		{ConventionHigher, 0.5, 0.6, false},
		{ConventionDistance, 0.5, 0.6, true},
		{ConventionDistance, 0.6, 0.6, true},
		{ConventionDistance, 0.7, 0.6, false},
	}
	for _, c := range cases {
		if got := c.conv.Accepts(c.score, c.tolerance); got != c.want {
			t.Fatalf("%s.Accepts(%v, %v) = %v, want %v", c.conv, c.score, c.tolerance, got, c.want)
		}
	}
}
