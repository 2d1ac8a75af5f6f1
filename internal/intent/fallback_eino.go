package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoChat 通过 eino 的 OpenAI 兼容 ChatModel 调用（默认指向 Gemini 的兼容端点）
type EinoChat struct {
	model model.BaseChatModel
}

func NewEinoChat(ctx context.Context, opts FallbackOptions) (*EinoChat, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: opts.BaseURL,
		Model:   opts.Model,
		APIKey:  opts.APIKey,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("eino: create chat model: %w", err)
	}
	return &EinoChat{model: chatModel}, nil
}

func (e *EinoChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return "", fmt.Errorf("eino: generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("eino: %w: empty response", ErrMalformedReply)
	}
	return resp.Content, nil
}

// FallbackOptions 兜底后端的连接参数
type FallbackOptions struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewFallback 按 provider 构造兜底分类器；缺少 API key 时返回 ErrNoFallback
func NewFallback(ctx context.Context, opts FallbackOptions, tables map[string]*Table) (*LLMFallback, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s api key is empty", ErrNoFallback, opts.Provider)
	}

	var (
		chat ChatCompleter
		err  error
	)
	provider := strings.ToLower(opts.Provider)
	switch provider {
	case "", "eino":
		provider = "eino"
		chat, err = NewEinoChat(ctx, opts)
	case "openai":
		chat, err = NewOpenAIChat(opts)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNoFallback, opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewLLMFallback(provider, chat, tables), nil
}
