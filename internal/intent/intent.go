// Package intent 把识别出的文本分类成封闭标签集合中的意图：先查规则表，置信度不够时再问 AI 兜底
package intent

// Source 意图结果来自哪一级
type Source string

const (
	SourceNone     Source = "none"
	SourcePattern  Source = "pattern"
	SourceFallback Source = "fallback"
)

// Intent is an immutable classification result.
type Intent struct {
	Label          Label
	Confidence     float64
	Entities       map[string]string
	OriginalText   string
	NormalizedText string
	Language       string
	Source         Source
}

// Entity names extracted by the default tables.
const (
	EntityEmailCount     = "email_count"
	EntitySenderName     = "sender_name"
	EntityCityName       = "city_name"
	EntityMathExpression = "math_expression"
)
