package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIResponder answers through an OpenAI-compatible chat completion API.
type OpenAIResponder struct {
	client   *openai.Client
	model    string
	personas persona.Store
	prompts  *PromptManager
	emotions EmotionClassifier
	log      *logger.Logger
}

// NewOpenAIResponder builds a client for apiKey. baseURL may point at any
// OpenAI-compatible server.
func NewOpenAIResponder(apiKey, model, baseURL string, personas persona.Store, emotions EmotionClassifier, log *logger.Logger) (*OpenAIResponder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIResponder{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		personas: personas,
		prompts:  NewPromptManager(),
		emotions: emotions,
		log:      log.With("service", "OpenAIResponder"),
	}, nil
}

func (r *OpenAIResponder) Respond(ctx context.Context, req Request) Reply {
	p := resolvePersona(r.personas, req.PersonaID)

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: r.prompts.BuildSystemPrompt(&p, req.PatientContext),
	}}
	for _, msg := range historyMessages(req.History) {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserInput,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		r.log.Warn("openai completion failed, using fallback", "model", r.model, "error", err)
		return FallbackReply()
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		r.log.Warn("openai completion returned no content, using fallback", "model", r.model)
		return FallbackReply()
	}

	return Reply{
		Response:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Emotion:   classifyOrNeutral(ctx, r.emotions, req.UserInput),
		MemoryTag: DeriveMemoryTag(req.UserInput),
	}
}
