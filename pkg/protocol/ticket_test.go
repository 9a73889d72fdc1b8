package protocol

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"billing", CategoryBilling, true},
		{"technical", CategoryTechnical, true},
		{"security", CategorySecurity, true},
		{"general", CategoryGeneral, true},
		{"Billing", CategoryGeneral, false},
		{"sales", CategoryGeneral, false},
		{"", CategoryGeneral, false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCategoriesComplete(t *testing.T) {
	cats := Categories()
	if len(cats) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if _, ok := ParseCategory(string(c)); !ok {
			t.Errorf("category %q does not round-trip through ParseCategory", c)
		}
	}
}
