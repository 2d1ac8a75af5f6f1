package wake

import (
	"slices"
	"sort"
	"strings"

	"github.com/liuscraft/luca-voice/internal/logging"
)

const DefaultPhoneticThreshold = 0.88

// sentencePunct is trimmed from token edges; operators stay intact.
const sentencePunct = ",.!?;:\"'«»؟،"

type Config struct {
	// Phrases overrides the defaults per language; languages not present
	// keep their default phrases.
	Phrases           map[string][]string
	Fillers           []string
	Phonetic          bool
	PhoneticThreshold float64
}

// Detector 唤醒词检测器，构造后只读，可并发使用
type Detector struct {
	phrases  map[string][][]string
	fillers  map[string]struct{}
	phonetic *phoneticMatcher
}

func NewDetector(cfg Config) *Detector {
	merged := DefaultPhrases()
	for lang, list := range cfg.Phrases {
		if len(list) > 0 {
			merged[lang] = list
		}
	}

	d := &Detector{
		phrases: make(map[string][][]string, len(merged)),
		fillers: make(map[string]struct{}),
	}
	for lang, list := range merged {
		var tokenized [][]string
		for _, phrase := range list {
			if tokens := tokenize(phrase); len(tokens) > 0 {
				tokenized = append(tokenized, tokens)
			}
		}
		// longest first so Strip removes "hey luca" rather than "luca"
		sort.SliceStable(tokenized, func(i, j int) bool { return len(tokenized[i]) > len(tokenized[j]) })
		d.phrases[lang] = tokenized
	}

	fillers := cfg.Fillers
	if len(fillers) == 0 {
		fillers = DefaultFillers
	}
	for _, f := range fillers {
		d.fillers[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}

	if cfg.Phonetic {
		threshold := cfg.PhoneticThreshold
		if threshold <= 0 {
			threshold = DefaultPhoneticThreshold
		}
		d.phonetic = newPhoneticMatcher(threshold)
	}
	return d
}

// Phrases returns the configured phrases for a language.
func (d *Detector) Phrases(language string) []string {
	out := make([]string, 0, len(d.phrases[language]))
	for _, tokens := range d.phrases[language] {
		out = append(out, strings.Join(tokens, " "))
	}
	return out
}

// Matches 判断文本中是否包含唤醒词：精确包含 > 去语气词后的有序模糊匹配 > 可选的音近匹配
func (d *Detector) Matches(text, language string) bool {
	phrases, ok := d.phrases[language]
	if !ok {
		logging.Debugf("WakeDetector: no phrases for language %q", language)
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}

	for _, phrase := range phrases {
		if strings.Contains(lower, strings.Join(phrase, " ")) {
			return true
		}
	}

	tokens := d.clean(tokenize(lower))
	cleaned := strings.Join(tokens, " ")
	for _, phrase := range phrases {
		if len(phrase) == 1 {
			if strings.Contains(cleaned, phrase[0]) {
				return true
			}
			continue
		}
		if inOrder(tokens, phrase, strings.Contains) {
			return true
		}
	}

	if d.phonetic != nil {
		for _, phrase := range phrases {
			if inOrder(tokens, phrase, d.phonetic.match) {
				logging.Debugf("WakeDetector: phonetic match %q in %q", strings.Join(phrase, " "), lower)
				return true
			}
		}
	}
	return false
}

// IsWakeOnly reports whether the text, without fillers and edge
// punctuation, equals one of the phrases word for word.
func (d *Detector) IsWakeOnly(text, language string) bool {
	tokens := d.clean(tokenize(text))
	if len(tokens) == 0 {
		return false
	}
	for _, phrase := range d.phrases[language] {
		if slices.Equal(tokens, phrase) {
			return true
		}
	}
	return false
}

// Strip 删除第一处唤醒词（以及它前面的语气词），返回剩下的命令部分
func (d *Detector) Strip(text, language string) string {
	tokens := tokenize(strings.ToLower(text))
	for _, phrase := range d.phrases[language] {
		start, end, ok := d.findSpan(tokens, phrase)
		if !ok {
			continue
		}
		rest := append(append([]string{}, d.clean(tokens[:start])...), tokens[end:]...)
		return strings.Join(d.clean(rest), " ")
	}
	return strings.Join(tokens, " ")
}

// findSpan locates phrase tokens as a run in tokens, allowing fillers in
// between. end is exclusive.
func (d *Detector) findSpan(tokens, phrase []string) (int, int, bool) {
	for start := range tokens {
		i, p := start, 0
		for i < len(tokens) && p < len(phrase) {
			switch {
			case strings.Contains(tokens[i], phrase[p]):
				p++
			case p > 0 && d.isFiller(tokens[i]):
			default:
				i = len(tokens)
				continue
			}
			i++
		}
		if p == len(phrase) {
			return start, i, true
		}
	}
	return 0, 0, false
}

func (d *Detector) isFiller(token string) bool {
	_, ok := d.fillers[token]
	return ok
}

func (d *Detector) clean(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !d.isFiller(t) {
			out = append(out, t)
		}
	}
	return out
}

// inOrder reports whether every phrase token matches a text token, in order.
func inOrder(tokens, phrase []string, match func(token, want string) bool) bool {
	p := 0
	for _, t := range tokens {
		if match(t, phrase[p]) {
			p++
			if p == len(phrase) {
				return true
			}
		}
	}
	return false
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, sentencePunct)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
