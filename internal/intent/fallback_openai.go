package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAIChat 直接用 openai-go 客户端调用 Chat Completions
type OpenAIChat struct {
	client oai.Client
	model  string
}

func NewOpenAIChat(opts FallbackOptions) (*OpenAIChat, error) {
	if opts.Model == "" {
		return nil, errors.New("openai: model must not be empty")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}
	return &OpenAIChat{client: oai.NewClient(reqOpts...), model: opts.Model}, nil
}

func (o *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(system),
			oai.UserMessage(user),
		},
		Temperature:         param.NewOpt(0.0),
		MaxCompletionTokens: param.NewOpt(int64(16)),
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: empty choices", ErrMalformedReply)
	}
	return resp.Choices[0].Message.Content, nil
}
