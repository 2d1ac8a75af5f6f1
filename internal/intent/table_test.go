package intent

import (
	"math"
	"strings"
	"testing"
)

func mustTables(t *testing.T) map[string]*Table {
	t.Helper()
	tables, err := DefaultTables()
	if err != nil {
		t.Fatalf("DefaultTables: %v", err)
	}
	return tables
}

func TestDefaultTablesBuild(t *testing.T) {
	tables := mustTables(t)
	for _, lang := range []string{"en", "ar", "tn"} {
		if tables[lang] == nil {
			t.Fatalf("missing table for %q", lang)
		}
	}
}

func TestBuildReportsCompileErrors(t *testing.T) {
	_, err := NewTableBuilder("xx").
		Intent(Time, `what (time`).
		Entity("city", `no group`).
		Intent(Label("dance"), `dance`).
		Build()
	if err == nil {
		t.Fatal("expected Build to fail")
	}
	for _, want := range []string{"what (time", "needs a capture group", "dance"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tables := mustTables(t)
	tests := []struct {
		lang string
		in   string
		want string
	}{
		{"en", "What's the TIME", "what is the time"},
		{"en", "12 times 4", "12 * 4"},
		{"tn", "chandi wa9t", "شنادي وقت"},
		{"tn", "a3tini 3 emails", "أعطيني 3 إيميل"},
		{"tn", "a7seb 12 + 3", "أحسب 12 + 3"},
		{"tn", "3ayech", "عayech"},
		{"ar", "كم الساعة", "كم الساعه"},
		{"ar", "أهلا", "اهلا"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.in, func(t *testing.T) {
			if got := tables[tt.lang].Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tables := mustTables(t)
	tests := []struct {
		lang string
		in   string
		want Label
	}{
		{"en", "read my last email", EmailInbox},
		{"en", "read the email from sarah", EmailRead},
		{"en", "what time is it", Time},
		{"en", "what's the weather in paris", Weather},
		{"en", "tell me a joke", Joke},
		{"en", "blue elephant sandwich", Unknown},
		{"ar", "كم الساعة", Time},
		{"ar", "أهلا", Greeting},
		{"tn", "chandi wa9t", Time},
		{"tn", "a3tini 3 emails", EmailInbox},
		{"tn", "7adher reponse", EmailReply},
		{"tn", "nazzam inbox", EmailOrganize},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.in, func(t *testing.T) {
			table := tables[tt.lang]
			label, conf := table.Match(table.Normalize(tt.in), DefaultScoring())
			if label != tt.want {
				t.Fatalf("Match(%q) = %s (%.2f), want %s", tt.in, label, conf, tt.want)
			}
			if label == Unknown && conf != 0 {
				t.Fatalf("unknown must score 0, got %v", conf)
			}
			if label != Unknown && (conf < 0.8 || conf > 1) {
				t.Fatalf("pattern confidence %v out of range", conf)
			}
		})
	}
}

func TestMatchTieKeepsEarlierEntry(t *testing.T) {
	table, err := NewTableBuilder("xx").
		Intent(Greeting, `hello`).
		Intent(Joke, `hello`).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if label, _ := table.Match("hello there", DefaultScoring()); label != Greeting {
			t.Fatalf("tie resolved to %s, want %s", label, Greeting)
		}
	}
}

func TestScoringClamps(t *testing.T) {
	s := DefaultScoring()
	if got := s.score(11); math.Abs(got-0.91) > 1e-9 {
		t.Fatalf("score(11) = %v, want 0.91", got)
	}
	if got := s.score(500); got != 1 {
		t.Fatalf("score(500) = %v, want 1", got)
	}
}

func TestEntities(t *testing.T) {
	tables := mustTables(t)
	tests := []struct {
		lang string
		in   string
		name string
		want string
	}{
		{"en", "what is 12 plus 30", EntityMathExpression, "12 + 30"},
		{"en", "read the email from sarah", EntitySenderName, "sarah"},
		{"en", "weather in tunis", EntityCityName, "tunis"},
		{"en", "show me 5 unread emails", EntityEmailCount, "5"},
		{"tn", "a3tini 3 emails", EntityEmailCount, "3"},
		{"ar", "الطقس في تونس", EntityCityName, "تونس"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.in, func(t *testing.T) {
			table := tables[tt.lang]
			got := table.Entities(table.Normalize(tt.in))
			if got[tt.name] != tt.want {
				t.Fatalf("entities = %v, want %s=%q", got, tt.name, tt.want)
			}
		})
	}
}
