package gender

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Gender
	}{
		{"M", Male},
		{"m", Male},
		{"male", Male},
		{"F", Female},
		{" female ", Female},
		{"", Unknown},
		{"X", Unknown},
		{"nonbinary", Unknown},
	}

	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if Male.String() != "M" || Female.String() != "F" || Unknown.String() != "" {
		t.Errorf("unexpected encodings: %q %q %q", Male.String(), Female.String(), Unknown.String())
	}
}

func TestTermFor(t *testing.T) {
	tests := []struct {
		typ  string
		g    Gender
		want string
	}{
		{"parent", Male, "father"},
		{"parent", Female, "mother"},
		{"parent", Unknown, "parent"},
		{"child", Female, "daughter"},
		{"auncle", Male, "uncle"},
		{"nibling", Female, "niece"},
		{"friend", Male, "friend"}, // no gendered vocabulary
		{"Parent", Female, "mother"},
	}

	for _, tt := range tests {
		if got := TermFor(tt.typ, tt.g); got != tt.want {
			t.Errorf("TermFor(%q, %v) = %q, want %q", tt.typ, tt.g, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"father", "parent"},
		{"Mother", "parent"},
		{"sister", "sibling"},
		{"wife", "spouse"},
		{"grandson", "grandchild"},
		{"friend", "friend"},
		{"  Best  Friend ", "best-friend"},
	}

	for _, tt := range tests {
		if got := Canonicalize(tt.term); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.term, got, tt.want)
		}
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		term string
		want Gender
	}{
		{"father", Male},
		{"mother", Female},
		{"aunt", Female},
		{"nephew", Male},
		{"parent", Unknown},
		{"friend", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := Infer(tt.term); got != tt.want {
			t.Errorf("Infer(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

// Every gendered term must canonicalize back to its type, and rendering a
// canonical type with the inferred gender must reproduce the term.
func TestVocabularyRoundTrip(t *testing.T) {
	for _, typ := range Types() {
		for _, g := range []Gender{Male, Female} {
			term := TermFor(typ, g)
			if term == typ {
				t.Errorf("type %q has no term for %v", typ, g)
				continue
			}
			if got := Canonicalize(term); got != typ {
				t.Errorf("Canonicalize(%q) = %q, want %q", term, got, typ)
			}
			if got := Infer(term); got != g {
				t.Errorf("Infer(%q) = %v, want %v", term, got, g)
			}
		}
	}
}
