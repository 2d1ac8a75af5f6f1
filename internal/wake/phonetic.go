package wake

import (
	"github.com/antzucaro/matchr"
)

// phoneticStageFloor is the Jaro-Winkler score a token must reach when its
// Double Metaphone codes already agree with the phrase token.
const phoneticStageFloor = 0.70

// phoneticMatcher 音近匹配：Double Metaphone 编码相同且相似度过下限，或者 Jaro-Winkler 相似度过阈值
type phoneticMatcher struct {
	threshold float64
}

func newPhoneticMatcher(threshold float64) *phoneticMatcher {
	return &phoneticMatcher{threshold: threshold}
}

func (m *phoneticMatcher) match(token, want string) bool {
	if token == want {
		return true
	}
	score := matchr.JaroWinkler(token, want, false)
	if score >= m.threshold {
		return true
	}
	return score >= phoneticStageFloor && codesOverlap(token, want)
}

func codesOverlap(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
