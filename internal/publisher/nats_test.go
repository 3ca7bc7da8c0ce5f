package publisher

import "testing"

func TestSubjectToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"route-001", "route-001"},
		{"route 001", "route_001"},
		{"a.b>c*d/e", "a_b_c_d_e"},
		{"  ", "_"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := subjectToken(tt.in); got != tt.want {
			t.Errorf("subjectToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
