package tagutil

import (
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"genre/action", "action"},
		{"Role-Playing (RPG)", "role-playing-rpg"},
		{"Turn-Based Strategy (TBS)", "turn-based-strategy-tbs"},
		{"Hack & Slash", "hack-and-slash"},
		{"Shoot 'em up", "shoot-em-up"},
		{`"Quoted"`, "quoted"},
		{"  Action  ", "action"},
		{"Sci-Fi", "sci-fi"},
		{"platform/PC (Windows)", "pc-windows"},
		{"---", ""},
		{"", ""},
		{"!!!", ""},
		{"4X", "4x"},
	}
	for _, c := range cases {
		if got := Canonicalize(c.in); got != c.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{"Role-Playing (RPG)", "Hack & Slash", "genre/Action", "already-canonical", "a  b   c"}
	for _, in := range inputs {
		once := Canonicalize(in)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestCanonicalizeSet_DedupAndOrder(t *testing.T) {
	got := CanonicalizeSet([]string{"Action", "action", "ACTION ", "Strategy", ""})
	want := []string{"action", "strategy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CanonicalizeSet = %v, want %v", got, want)
	}
}

func TestCanonicalizeSet_DropsEmpties(t *testing.T) {
	if got := CanonicalizeSet([]string{"", "---", "!!!"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
