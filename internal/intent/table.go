package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type substitution struct {
	re          *regexp.Regexp
	replacement string
}

type pattern struct {
	re     *regexp.Regexp
	source string
	length int
}

type intentEntry struct {
	label    Label
	patterns []pattern
}

type entityEntry struct {
	name     string
	patterns []*regexp.Regexp
}

// Table 一种语言的不可变规则表，由 TableBuilder 构建
type Table struct {
	language      string
	substitutions []substitution
	letters       map[rune]string
	intents       []intentEntry
	entities      []entityEntry
	examples      map[Label]string
}

// TableBuilder collects table entries in order. Compile errors are reported
// together by Build.
type TableBuilder struct {
	table *Table
	errs  []error
}

func NewTableBuilder(language string) *TableBuilder {
	return &TableBuilder{table: &Table{
		language: language,
		letters:  make(map[rune]string),
		examples: make(map[Label]string),
	}}
}

// Substitute adds a regex rewrite applied to the lowercased text, in the
// order added.
func (b *TableBuilder) Substitute(expr, replacement string) *TableBuilder {
	re, err := regexp.Compile(expr)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("substitution %q: %w", expr, err))
		return b
	}
	b.table.substitutions = append(b.table.substitutions, substitution{re: re, replacement: replacement})
	return b
}

// Letter maps a digit used as a letter (Arabizi "3" for ع) to its script
// form. It only applies inside tokens that also contain Latin letters, so
// plain numbers survive normalization.
func (b *TableBuilder) Letter(from rune, to string) *TableBuilder {
	b.table.letters[from] = to
	return b
}

// Intent appends patterns for a label. Earlier entries win ties.
func (b *TableBuilder) Intent(label Label, exprs ...string) *TableBuilder {
	if !label.Valid() || label == Unknown {
		b.errs = append(b.errs, fmt.Errorf("intent label %q is not assignable", label))
		return b
	}
	entry := intentEntry{label: label}
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("intent %s pattern %q: %w", label, expr, err))
			continue
		}
		entry.patterns = append(entry.patterns, pattern{re: re, source: expr, length: utf8.RuneCountInString(expr)})
	}
	b.table.intents = append(b.table.intents, entry)
	return b
}

// Entity appends extraction patterns; group 1 of the first match is the value.
func (b *TableBuilder) Entity(name string, exprs ...string) *TableBuilder {
	entry := entityEntry{name: name}
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("entity %s pattern %q: %w", name, expr, err))
			continue
		}
		if re.NumSubexp() < 1 {
			b.errs = append(b.errs, fmt.Errorf("entity %s pattern %q: needs a capture group", name, expr))
			continue
		}
		entry.patterns = append(entry.patterns, re)
	}
	b.table.entities = append(b.table.entities, entry)
	return b
}

// Example sets the one-shot example shown to the fallback classifier.
func (b *TableBuilder) Example(label Label, example string) *TableBuilder {
	b.table.examples[label] = example
	return b
}

func (b *TableBuilder) Build() (*Table, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("intent table %q: %w", b.table.language, errors.Join(b.errs...))
	}
	t := b.table
	b.table = nil
	return t, nil
}

func (t *Table) Language() string { return t.language }

// Example returns the table's example for a label, if any.
func (t *Table) Example(label Label) (string, bool) {
	ex, ok := t.examples[label]
	return ex, ok
}

// Normalize 小写化后依次执行替换表，最后把混写 token 里的数字字母换成阿拉伯字母
func (t *Table) Normalize(text string) string {
	out := strings.ToLower(strings.TrimSpace(text))
	for _, sub := range t.substitutions {
		out = sub.re.ReplaceAllLiteralString(out, sub.replacement)
	}
	if len(t.letters) == 0 {
		return out
	}

	fields := strings.Fields(out)
	for i, field := range fields {
		if !hasLatinLetter(field) {
			continue
		}
		var sb strings.Builder
		for _, r := range field {
			if repl, ok := t.letters[r]; ok {
				sb.WriteString(repl)
			} else {
				sb.WriteRune(r)
			}
		}
		fields[i] = sb.String()
	}
	return strings.Join(fields, " ")
}

// Match 在全部意图的全部规则中取最高分；同分保留表中靠前的
func (t *Table) Match(normalized string, scoring Scoring) (Label, float64) {
	best, bestScore := Unknown, 0.0
	for _, entry := range t.intents {
		for _, p := range entry.patterns {
			if !p.re.MatchString(normalized) {
				continue
			}
			if score := scoring.score(p.length); score > bestScore {
				best, bestScore = entry.label, score
			}
		}
	}
	return best, bestScore
}

// Entities runs extraction over the normalized text.
func (t *Table) Entities(normalized string) map[string]string {
	entities := make(map[string]string)
	for _, entry := range t.entities {
		for _, re := range entry.patterns {
			m := re.FindStringSubmatch(normalized)
			if m == nil {
				continue
			}
			if v := strings.TrimSpace(m[1]); v != "" {
				entities[entry.name] = v
				break
			}
		}
	}
	return entities
}

func hasLatinLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}
