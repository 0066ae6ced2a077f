package version

import "testing"

func TestCleanup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// already valid
		{"1", "1"},
		{"1.2.3", "1.2.3"},
		{"1.2.3.qualifier", "1.2.3.qualifier"},
		{"[1.0,2.0)", "[1.0,2.0)"},

		// fuzzy versions
		{"1-SNAPSHOT", "1.0.0.SNAPSHOT"},
		{"1.2-SNAPSHOT", "1.2.0.SNAPSHOT"},
		{"1.2.3-SNAPSHOT", "1.2.3.SNAPSHOT"},
		{"2.0.0.beta+1", "2.0.0.beta1"},
		{"1.0.0-20090101.120000-1", "1.0.0.1"},
		{"1.5 final", "1.5.0.final"},

		// fuzzy ranges
		{"[1.0 , 2)", "[1.0,2)"},
		{"( 1.0-beta, 2.0-rc ]", "(1.0.0.beta,2.0.0.rc]"},

		// not versions at all
		{"latest", "latest"},
		{"${@}", "${@}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Cleanup(tt.in); got != tt.want {
				t.Errorf("Cleanup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanupIsIdempotentOnResults(t *testing.T) {
	for _, in := range []string{"1.2-SNAPSHOT", "[1.0 , 2)", "3.1 beta"} {
		once := Cleanup(in)
		if twice := Cleanup(once); twice != once {
			t.Errorf("Cleanup(Cleanup(%q)) = %q, want %q", in, twice, once)
		}
		if !ValidRange(once) {
			t.Errorf("Cleanup(%q) = %q is not a valid range", in, once)
		}
	}
}
