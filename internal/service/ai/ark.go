package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
)

// EmotionClassifier 为一段文本给出情绪标签。
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) string
}

// ArkResponder answers through an eino chain on top of any chat model.
type ArkResponder struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	personas persona.Store
	prompts  *PromptManager
	emotions EmotionClassifier
	log      *logger.Logger
}

// NewArkResponder compiles the chat chain for chatModel.
func NewArkResponder(ctx context.Context, chatModel model.BaseChatModel, personas persona.Store, emotions EmotionClassifier, log *logger.Logger) (*ArkResponder, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkResponder{
		chain:    runnable,
		personas: personas,
		prompts:  NewPromptManager(),
		emotions: emotions,
		log:      log.With("service", "ArkResponder"),
	}, nil
}

func (r *ArkResponder) Respond(ctx context.Context, req Request) Reply {
	p := resolvePersona(r.personas, req.PersonaID)
	input := map[string]any{
		"system":  r.prompts.BuildSystemPrompt(&p, req.PatientContext),
		"history": historyMessages(req.History),
		"query":   req.UserInput,
	}

	msg, err := r.chain.Invoke(ctx, input)
	if err != nil {
		r.log.Warn("chat chain failed, using fallback", "persona", p.ID, "error", err)
		return FallbackReply()
	}
	content := ""
	if msg != nil {
		content = strings.TrimSpace(msg.Content)
	}
	if content == "" {
		r.log.Warn("chat chain returned empty reply, using fallback", "persona", p.ID)
		return FallbackReply()
	}

	r.log.Debug("generated reply", "persona", p.ID, "length", len(content))
	return Reply{
		Response:  content,
		Emotion:   classifyOrNeutral(ctx, r.emotions, req.UserInput),
		MemoryTag: DeriveMemoryTag(req.UserInput),
	}
}

// historyMessages 将 "User: ..." / "Companion: ..." 行还原成模型消息。
func historyMessages(lines []string) []*schema.Message {
	if len(lines) == 0 {
		return nil
	}
	out := make([]*schema.Message, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, HistoryUserPrefix):
			out = append(out, schema.UserMessage(strings.TrimSpace(strings.TrimPrefix(line, HistoryUserPrefix))))
		case strings.HasPrefix(line, HistoryCompanionPrefix):
			out = append(out, schema.AssistantMessage(strings.TrimSpace(strings.TrimPrefix(line, HistoryCompanionPrefix)), nil))
		}
	}
	return out
}

func classifyOrNeutral(ctx context.Context, c EmotionClassifier, text string) string {
	if c == nil {
		return FallbackEmotion
	}
	if label := c.Classify(ctx, text); label != "" {
		return label
	}
	return FallbackEmotion
}

func resolvePersona(store persona.Store, id string) persona.Persona {
	if store != nil {
		if p, ok := persona.Resolve(store, id, persona.DefaultID); ok {
			return p
		}
		if p, ok := store.FindByID(persona.DefaultID); ok {
			return p
		}
	}
	return persona.Persona{ID: persona.DefaultID, Name: "Companion", Title: "reflective companion", Tone: "warm"}
}
