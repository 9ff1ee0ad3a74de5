package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
)

// Collaborator call errors. ErrNoQuestions is distinct from a transport
// failure: the model answered, but with an empty paper.
var (
	ErrNoQuestions = errors.New("no questions generated")
	ErrEmptyChoice = errors.New("model returned no choices")
)

// Client wraps the OpenAI-compatible generative-language API used for
// question generation, grading, chat and translation.
type Client struct {
	api           *openai.Client
	model         string
	questionCount int
}

// New creates a collaborator client from configuration.
func New(cfg *config.Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		apiCfg.BaseURL = cfg.LLMBaseURL
	}
	return &Client{
		api:           openai.NewClientWithConfig(apiCfg),
		model:         cfg.LLMModel,
		questionCount: cfg.QuestionCount,
	}
}

// GenerateQuestions asks the collaborator for an exam paper matching the
// spec. Single request, no in-process retry. The response is
// schema-validated and fails closed; an empty paper returns ErrNoQuestions.
func (c *Client) GenerateQuestions(ctx context.Context, spec model.AssessmentSpec) ([]model.Question, error) {
	raw, err := c.completeJSON(ctx, buildGenerationPrompt(spec, c.questionCount), 0.7)
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}

	questions, err := parseGenerationResponse(raw, spec)
	if err != nil {
		return nil, fmt.Errorf("parse generation response: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// GradeExam asks the collaborator to grade a completed paper. It returns
// the report body without an id; the caller stamps identity and timing.
func (c *Client) GradeExam(
	ctx context.Context,
	questions []model.Question,
	answers []model.AnswerRecord,
	student model.StudentIdentity,
	spec model.AssessmentSpec,
) (*model.ReportCard, error) {
	raw, err := c.completeJSON(ctx, buildGradingPrompt(questions, answers, student, spec), 0.2)
	if err != nil {
		return nil, fmt.Errorf("grading call: %w", err)
	}

	card, err := parseGradingResponse(raw, len(questions))
	if err != nil {
		return nil, fmt.Errorf("parse grading response: %w", err)
	}
	return card, nil
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=8000"`
}

// Chat returns a single completion for the conversation.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoice
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream streams completion deltas for the conversation, invoking fn
// for every non-empty chunk. Returning an error from fn stops the stream.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, fn func(delta string) error) error {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("chat stream call: %w", err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("chat stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return err
		}
	}
}

// Translate renders text into the target language.
func (c *Client) Translate(ctx context.Context, text string, target model.Language) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildTranslationPrompt(text, target)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("translation call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoice
	}
	return resp.Choices[0].Message.Content, nil
}

// completeJSON sends a single user prompt and requests a JSON object reply.
func (c *Client) completeJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoice
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
