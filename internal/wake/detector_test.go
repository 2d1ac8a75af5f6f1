package wake

import "testing"

func TestMatches(t *testing.T) {
	d := NewDetector(Config{})

	tests := []struct {
		name string
		text string
		lang string
		want bool
	}{
		{"exact phrase", "hey luca", "en", true},
		{"phrase inside sentence", "Hey Luca what time is it", "en", true},
		{"bare name", "luca", "en", true},
		{"filler between tokens", "hey um luca", "en", true},
		{"filler before name", "uh, luca!", "en", true},
		{"unrelated", "what time is it", "en", false},
		{"empty", "   ", "en", false},
		{"arabic phrase", "مرحبا لوكا كيف حالك", "ar", true},
		{"tunisian latin phrase", "salut luca", "tn", true},
		{"tunisian arabic phrase", "يا لوكا", "tn", true},
		{"english phrase not arabic", "hey luca", "ar", false},
		{"unknown language", "hey luca", "fr", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Matches(tt.text, tt.lang); got != tt.want {
				t.Fatalf("Matches(%q, %q) = %v, want %v", tt.text, tt.lang, got, tt.want)
			}
		})
	}
}

func TestFillersAreWholeTokens(t *testing.T) {
	d := NewDetector(Config{Phrases: map[string][]string{"en": {"hey summer"}}})
	// removing "um" inside "summer" would break the match
	if !d.Matches("hey uh summer", "en") {
		t.Fatal("expected filler-tolerant match")
	}
	if d.Matches("hum there", "en") {
		t.Fatal("unexpected match")
	}
}

func TestConfigOverridesPhrases(t *testing.T) {
	d := NewDetector(Config{Phrases: map[string][]string{"en": {"computer"}}})
	if d.Matches("hey luca", "en") {
		t.Fatal("overridden language should not keep default phrases")
	}
	if !d.Matches("computer open mail", "en") {
		t.Fatal("expected override phrase to match")
	}
	if !d.Matches("يا لوكا", "ar") {
		t.Fatal("other languages keep their defaults")
	}
}

func TestStrip(t *testing.T) {
	d := NewDetector(Config{})

	tests := []struct {
		text string
		lang string
		want string
	}{
		{"hey luca what time is it", "en", "what time is it"},
		{"um hey luca, open music", "en", "open music"},
		{"okay luca", "en", ""},
		{"what is 5 - 3 luca", "en", "what is 5 - 3"},
		{"يا لوكا شنوة الوقت", "tn", "شنوة الوقت"},
		{"no wake here", "en", "no wake here"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := d.Strip(tt.text, tt.lang); got != tt.want {
				t.Fatalf("Strip(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsWakeOnly(t *testing.T) {
	d := NewDetector(Config{})
	tests := []struct {
		text string
		lang string
		want bool
	}{
		{"Hey Luca.", "en", true},
		{"uh luca", "en", true},
		{"OK luca!", "en", true},
		{"يا لوكا", "ar", true},
		{"hey luca play music", "en", false},
		{"play music", "en", false},
		{"lucas", "en", false},
		{"hey lucas", "en", false},
		{"luca luca", "en", false},
		{"", "en", false},
		{"luca", "xx", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := d.IsWakeOnly(tt.text, tt.lang); got != tt.want {
				t.Fatalf("IsWakeOnly(%q, %s) = %v, want %v", tt.text, tt.lang, got, tt.want)
			}
		})
	}
}

func TestPhoneticStage(t *testing.T) {
	plain := NewDetector(Config{})
	phonetic := NewDetector(Config{Phonetic: true})

	if plain.Matches("hey luka", "en") {
		t.Fatal("phonetic stage should be off by default")
	}
	if !phonetic.Matches("hey luka", "en") {
		t.Fatal("expected phonetic match for misspelled name")
	}
	if phonetic.Matches("look at this", "en") {
		t.Fatal("unrelated words must not match phonetically")
	}
}
