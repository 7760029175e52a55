package advisor

import (
	"context"
	"fmt"

	"github.com/prajal/Multi-strategy-trading/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Advisor produces an LLM-written review of a backtest run: what worked,
// what hurt, and which parameters look worth revisiting.
type Advisor struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewAdvisor(tracer trace.Tracer, llm LLMClient, model string) *Advisor {
	return &Advisor{
		tracer: tracer,
		llm:    llm,
		model:  model,
	}
}

// ReviewBacktest asks the LLM for a short narrative review of the run.
func (a *Advisor) ReviewBacktest(ctx context.Context, result *domain.BacktestResult) (string, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.review-backtest")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile", result.Summary.Profile),
		attribute.Int("trades", result.Summary.TotalTrades),
	)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(reviewPhilosophy),
		openai.UserMessage(FormatBacktestContext(result)),
	}

	reply, err := a.callLLM(ctx, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("advisor unavailable: %w", err)
	}
	return reply, nil
}

func (a *Advisor) callLLM(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", a.model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
