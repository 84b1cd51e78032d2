package service

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// louiePersona is the system prompt for the personality responder.
const louiePersona = "You are Louie, a cute and friendly dog."

// PersonalityService relays messages naming the bot to an OpenAI chat
// completion and returns the reply verbatim. It never touches the ledger.
type PersonalityService struct {
	client *openai.Client
	model  string
}

// NewPersonalityService builds the responder. An empty API key returns a
// disabled service: Respond then fails with a clear error the bot can
// surface instead of calling out.
func NewPersonalityService(apiKey, model string) *PersonalityService {
	svc := &PersonalityService{model: model}
	if apiKey != "" {
		svc.client = openai.NewClient(apiKey)
	}
	return svc
}

func (s *PersonalityService) Enabled() bool {
	return s.client != nil
}

// Respond asks the model for Louie's reply to message.
func (s *PersonalityService) Respond(ctx context.Context, message string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("personality responder disabled: no API key configured")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: louiePersona},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   150,
		N:           1,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
