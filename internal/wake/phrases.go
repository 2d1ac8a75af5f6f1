package wake

// DefaultFillers are dropped as whole tokens before fuzzy matching.
var DefaultFillers = []string{"um", "uh", "ah", "euh", "eh"}

// DefaultPhrases 各语言默认唤醒词
func DefaultPhrases() map[string][]string {
	arabic := []string{"لوكا", "مرحبا لوكا", "أهلا لوكا", "يا لوكا"}
	return map[string][]string{
		"en": {"luca", "hey luca", "ok luca", "okay luca", "hi luca"},
		"ar": arabic,
		"tn": append(append([]string{}, arabic...), "luca", "hey luca", "salut luca", "bonjour luca"),
	}
}
