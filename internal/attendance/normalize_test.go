package attendance

import "testing"

func TestFoldName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"JOHN  DOE ", "john doe"},
		{"Žluťoučký kůň", "zlutoucky kun"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := foldName(tt.input); got != tt.expected {
				t.Errorf("foldName(%q) = %q, want %q", tt.input, got, tt.expected)
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
		{"Jiří Novák", "JIRI", true},
		{"Jiří Novák", "", true},
		{"Mary-Jane Watson", "mary jane", true},
		{"Peter Parker", "novak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			if got := nameMatches(tt.name, tt.query); got != tt.want {
				t.Errorf("nameMatches(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
			}
		})
	}
}
