package revision

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Revision
	}{
		{"7.0.0", V7_0_0},
		{"v3.0.0", V3_0_0},
		{"6", V6_0_0},
		{"6.0", V6_0_0},
		{"9.1.2", New(9, 1, 2)},
		{"7.0.1-rc1", New(7, 0, 1)},
		{" 1.0.0 ", V1_0_0},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3.4", "64.0.0", "1.64.0", "1.0.16"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestOrdering(t *testing.T) {
	ordered := []Revision{V1_0_0, New(2, 3, 0), V3_0_0, New(5, 1, 0), V6_0_0, V7_0_0, New(7, 0, 1), New(10, 0, 0)}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Errorf("%s should sort before %s", ordered[i-1], ordered[i])
		}
	}
}

func TestComponents(t *testing.T) {
	r := New(9, 2, 1)
	if r.Major() != 9 || r.Minor() != 2 || r.Micro() != 1 {
		t.Fatalf("components = %d.%d.%d", r.Major(), r.Minor(), r.Micro())
	}
	if r.String() != "9.2.1" {
		t.Fatalf("String = %q", r.String())
	}
}

func TestValid(t *testing.T) {
	for _, r := range []Revision{V1_0_0, V7_0_0, New(15, 63, 15), MustParse("6.2")} {
		if !r.Valid() {
			t.Errorf("%s reported invalid", r)
		}
	}
	for _, r := range []Revision{Revision(7), Revision(6), V7_0_0 | 1} {
		if r.Valid() {
			t.Errorf("raw 0x%x reported valid", uint32(r))
		}
	}
}

func TestText(t *testing.T) {
	text, err := V6_0_0.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var r Revision
	if err := r.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if r != V6_0_0 {
		t.Fatalf("got %s, want 6.0.0", r)
	}
	if err := r.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("UnmarshalText(bogus) should fail")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse should panic on bad input")
		}
	}()
	MustParse("x.y")
}
