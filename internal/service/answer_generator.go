package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-agent/internal/models"
	"order-agent/internal/util"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultAnswerModel = "gpt-4o-mini"
	answerMaxTokens    = 220
	answerTemperature  = 0.3
)

// OpenAIAnswerGenerator answers product questions with a chat completion
// grounded on the catalog facts. Each call is a single attempt.
type OpenAIAnswerGenerator struct {
	client openai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

// NewOpenAIAnswerGenerator creates the generator. baseURL may be empty to
// use the public API.
func NewOpenAIAnswerGenerator(apiKey, model, baseURL string) *OpenAIAnswerGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultAnswerModel
	}

	return &OpenAIAnswerGenerator{
		client: openai.NewClient(opts...),
		model:  model,
		cb:     util.NewCircuitBreaker("answer-generator"),
	}
}

// Answer returns a short reply about product. Without product facts it
// returns FallbackAnswer and never calls the model.
func (g *OpenAIAnswerGenerator) Answer(ctx context.Context, product *models.Product, last *models.Turn, question string) (string, error) {
	if product == nil {
		return FallbackAnswer, nil
	}

	ctx, span := util.StartSpan(ctx, "OpenAIAnswerGenerator.Answer")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", product.ID))

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(product)),
	}
	if last != nil {
		messages = append(messages,
			openai.UserMessage(last.User),
			openai.AssistantMessage(last.Assistant))
	}
	messages = append(messages, openai.UserMessage(question))

	result, err := g.cb.Execute(func() (interface{}, error) {
		resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(g.model),
			Messages:    messages,
			MaxTokens:   openai.Int(answerMaxTokens),
			Temperature: openai.Float(answerTemperature),
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("chat completion returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return FallbackAnswer, err
	}

	answer := result.(string)
	if answer == "" {
		return FallbackAnswer, errors.New("chat completion returned empty answer")
	}
	return answer, nil
}

func systemPrompt(p *models.Product) string {
	var b strings.Builder
	b.WriteString("Eres el asesor de ventas de una tienda por WhatsApp. Responde en español, en máximo tres frases, con tono cercano.\n")
	b.WriteString("Usa únicamente los datos del producto que aparecen abajo. No inventes información.\n")
	fmt.Fprintf(&b, "Si la respuesta no está en los datos, responde exactamente: %q\n\n", FallbackAnswer)

	fmt.Fprintf(&b, "Producto: %s\n", p.Name)
	fmt.Fprintf(&b, "Categoría: %s\n", p.Category)
	fmt.Fprintf(&b, "Precio: %s\n", formatPrice(p.Price))
	writeFact(&b, "Descripción", p.Description)
	writeFact(&b, "Modo de uso", p.Usage)
	writeFact(&b, "Duración", p.Duration)
	writeFact(&b, "Ingredientes", p.Ingredients)
	writeFact(&b, "Advertencias", p.Warnings)
	return b.String()
}

func writeFact(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
