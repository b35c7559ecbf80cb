package posts

import "testing"

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		0:       "Free",
		99:      "$0.99",
		500:     "$5.00",
		1234567: "$12,345.67",
	}
	for cents, want := range cases {
		if got := FormatPrice(cents); got != want {
			t.Errorf("FormatPrice(%d) = %q, want %q", cents, got, want)
		}
	}
}
