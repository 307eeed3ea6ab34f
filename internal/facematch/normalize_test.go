package facematch

import "testing"

func TestNormalizePersonName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří Novák", "jiri novak"},
		{"  PRIYA   Sharma ", "priya sharma"},
		{"jan-novak", "jan novak"},
		{"R.K. Narayan", "r k narayan"},
		{"josé_garcía", "jose garcia"},
		{"Žluťoučký kůň", "zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizePersonName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePersonName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		name, query string
		want        bool
	}{
		{"Jiří Novák", "novak", true},
		{"Jiří Novák", "JIRI nov", true},
		{"Anna-Marie Svobodová", "anna marie", true},
		{"Anna Svobodová", "novak", false},
		{"Anna Svobodová", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			if got := NameMatches(tt.name, tt.query); got != tt.want {
				t.Errorf("NameMatches(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
			}
		})
	}
}
