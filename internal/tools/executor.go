// Package tools 根据意图标签执行动作，生成给用户的回复
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liuscraft/luca-voice/internal/intent"
	"github.com/liuscraft/luca-voice/internal/logging"
)

var (
	ErrNotUnderstood = errors.New("intent not understood")
	// ErrNotSupported means the label is recognized but has no action here.
	ErrNotSupported = errors.New("action not supported")
)

// Result 动作执行结果
type Result struct {
	Label intent.Label
	// Reply is what the assistant says back.
	Reply string
	Data  map[string]interface{}
}

// Executor 按封闭标签集合分派动作
type Executor struct {
	now func() time.Time
}

func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

// Execute 每个标签都必须在 switch 里出现；新增标签时这里要同步
func (e *Executor) Execute(ctx context.Context, it intent.Intent) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Label: it.Label}

	switch it.Label {
	case intent.Time:
		data := timeData(e.now())
		res.Data = data
		res.Reply = fmt.Sprintf("It is %s.", data["clock"])
	case intent.Date:
		data := timeData(e.now())
		res.Data = data
		res.Reply = fmt.Sprintf("Today is %s.", data["date"])
	case intent.Calculate:
		expr := it.Entities[intent.EntityMathExpression]
		if expr == "" {
			res.Reply = "Tell me what to calculate, for example 12 times 4."
			return res, fmt.Errorf("calculate: %w: no expression", ErrNotUnderstood)
		}
		value, err := Evaluate(expr)
		if err != nil {
			res.Reply = fmt.Sprintf("I could not calculate %s.", expr)
			return res, fmt.Errorf("calculate %q: %w", expr, err)
		}
		res.Data = map[string]interface{}{"expression": expr, "value": value}
		res.Reply = fmt.Sprintf("%s = %s", expr, formatNumber(value))
	case intent.Help:
		res.Reply = "You can ask me the time, the date, or to calculate something like 12 times 4."
	case intent.Greeting:
		res.Reply = "Hello! How can I help?"
	case intent.HowAreYou:
		res.Reply = "I'm doing well, thanks for asking."
	case intent.Goodbye:
		res.Reply = "Goodbye!"
	case intent.Weather, intent.Joke, intent.Quote, intent.News, intent.Search,
		intent.Define, intent.Reminder, intent.Music, intent.OpenApp, intent.CloseApp:
		res.Reply = fmt.Sprintf("I understood %q, but I can't do that yet.", it.Label)
		return res, fmt.Errorf("%s: %w", it.Label, ErrNotSupported)
	case intent.EmailInbox, intent.EmailRead, intent.EmailCompose, intent.EmailReply,
		intent.EmailSend, intent.EmailOrganize:
		res.Reply = "Email is not connected."
		res.Data = map[string]interface{}{}
		for k, v := range it.Entities {
			res.Data[k] = v
		}
		return res, fmt.Errorf("%s: %w", it.Label, ErrNotSupported)
	case intent.Unknown:
		res.Reply = "Sorry, I didn't understand that."
		return res, ErrNotUnderstood
	default:
		logging.Errorf("Executor: unhandled intent label %q", it.Label)
		return res, fmt.Errorf("%w: label %q", ErrNotUnderstood, it.Label)
	}

	logging.Infof("Executor: %s -> %q", it.Label, res.Reply)
	return res, nil
}
