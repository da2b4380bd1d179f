package utils

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "al***@example.com"},
		{"bob.smith@shop.io", "bo***@shop.io"},
		{"ab@x.io", "a***@x.io"},
		{"a@x.io", "a***@x.io"},
		{"not-an-email", "***"},
		{"", "***"},
		{"@domain.com", "***"},
	}
	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
