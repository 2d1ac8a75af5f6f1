package intent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoFallback means no fallback classifier is configured or usable.
	ErrNoFallback     = errors.New("fallback classifier unavailable")
	ErrMalformedReply = errors.New("malformed fallback reply")
)

// Fallback AI 兜底分类器：文本 -> (标签, 置信度)
type Fallback interface {
	Name() string
	Classify(ctx context.Context, text, language string) (Label, float64, error)
}

// ChatCompleter is a single-turn chat model call.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMFallback 用聊天模型做分类：构造带封闭标签集合的提示词，解析 "label: confidence"
type LLMFallback struct {
	name     string
	chat     ChatCompleter
	examples func(language string, label Label) string
}

func NewLLMFallback(name string, chat ChatCompleter, tables map[string]*Table) *LLMFallback {
	return &LLMFallback{
		name: name,
		chat: chat,
		examples: func(language string, label Label) string {
			if t, ok := tables[language]; ok {
				if ex, ok := t.Example(label); ok {
					return ex
				}
			}
			return englishExamples[label]
		},
	}
}

func (f *LLMFallback) Name() string { return f.name }

func (f *LLMFallback) Classify(ctx context.Context, text, language string) (Label, float64, error) {
	reply, err := f.chat.Complete(ctx, systemPrompt, BuildPrompt(text, language, f.examples))
	if err != nil {
		return Unknown, 0, err
	}
	return ParseReply(reply)
}

const systemPrompt = "You classify voice assistant commands into a fixed set of intents. Answer with one line only."

var languageNames = map[string]string{
	"en": "English",
	"ar": "Modern Standard Arabic",
	"tn": "Tunisian Arabic (Derja), possibly written in Latin letters with digits",
}

var englishExamples = map[Label]string{
	Unknown:       "blue elephant sandwich",
	Greeting:      "hello there",
	Goodbye:       "bye for now",
	HowAreYou:     "how are you doing",
	Time:          "what time is it",
	Date:          "what is the date today",
	Weather:       "what is the weather in tunis",
	Joke:          "tell me a joke",
	Quote:         "give me a quote",
	News:          "what is in the news",
	Help:          "what can you do",
	Calculate:     "what is 12 times 4",
	Search:        "search for pizza places",
	Define:        "define serendipity",
	Reminder:      "remind me to call mom",
	Music:         "play some music",
	OpenApp:       "open the browser",
	CloseApp:      "close the calculator",
	EmailInbox:    "check my inbox",
	EmailRead:     "read the email from sarah",
	EmailCompose:  "write a new email",
	EmailReply:    "reply to this email",
	EmailSend:     "send the email",
	EmailOrganize: "organize my inbox",
}

// BuildPrompt 构造分类提示词：原文、语言名、每个标签一个示例
func BuildPrompt(text, language string, example func(language string, label Label) string) string {
	name := languageNames[language]
	if name == "" {
		name = language
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", name)
	fmt.Fprintf(&sb, "Text: %q\n\n", text)
	sb.WriteString("Intents (use exactly one of these names):\n")
	for _, label := range allLabels {
		fmt.Fprintf(&sb, "- %s: %q\n", label, example(language, label))
	}
	sb.WriteString("\nRespond with only the intent name and confidence (0.0-1.0) in this format:\n")
	sb.WriteString("intent: confidence\n\nExample: time: 0.9")
	return sb.String()
}

// ParseReply 取第一行含冒号的内容，标签必须在封闭集合内，置信度截断到 [0,1]
func ParseReply(reply string) (Label, float64, error) {
	for _, line := range strings.Split(reply, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label, valid := ParseLabel(name)
		if !valid {
			return Unknown, 0, fmt.Errorf("%w: unknown label %q", ErrMalformedReply, strings.TrimSpace(name))
		}
		value = strings.TrimSuffix(strings.Trim(strings.TrimSpace(value), "*`\"'"), ".")
		confidence, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Unknown, 0, fmt.Errorf("%w: confidence %q", ErrMalformedReply, value)
		}
		return label, clamp01(confidence), nil
	}
	return Unknown, 0, fmt.Errorf("%w: no \"label: confidence\" line", ErrMalformedReply)
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
