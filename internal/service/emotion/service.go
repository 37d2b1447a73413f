package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/whispers/backend/internal/analysis/emotion"
	"github.com/zhouzirui/whispers/backend/internal/logger"
)

// Config 控制情绪分类服务的行为。
type Config struct {
	Enabled bool
}

// Service 使用大模型给文本打上四类情绪标签，失败时回退到关键词规则。
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
	fallback   func(text string) analysis.Label
	log        *logger.Logger
}

// NewService 创建情绪分类服务。chatModel 为 nil 或未启用时只使用规则表。
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config, log *logger.Logger) (*Service, error) {
	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.Classify,
		log:      log.With("service", "EmotionService"),
	}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}
	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回是否启用了大模型分类。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Label 返回文本的情绪标签。
func (s *Service) Label(ctx context.Context, text string) analysis.Label {
	if !s.Enabled() || strings.TrimSpace(text) == "" {
		return s.fallback(text)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"text": strings.TrimSpace(text)})
	if err != nil {
		s.log.Warn("classifier invoke failed, use fallback", "error", err)
		return s.fallback(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(text)
	}

	label, err := parseClassifierOutput(msg.Content)
	if err != nil {
		s.log.Warn("classifier output parse failed, use fallback", "error", err)
		return s.fallback(text)
	}
	return label
}

// Classify 满足响应器的情绪分类接口。
func (s *Service) Classify(ctx context.Context, text string) string {
	return string(s.Label(ctx, text))
}

// parseClassifierOutput 接受 JSON 对象或裸标签。
func parseClassifierOutput(content string) (analysis.Label, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		var payload struct {
			Emotion string `json:"emotion"`
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
			return "", err
		}
		trimmed = payload.Emotion
	}

	label, ok := analysis.ParseLabel(strings.Trim(trimmed, "\"'. \n"))
	if !ok {
		return "", fmt.Errorf("unknown emotion label %q", content)
	}
	return label, nil
}

const classifierSystemPrompt = `You label the mood of a short journal message.
Answer with a single JSON object {"emotion": "<label>"} where <label> is one of joy, wonder, reflection, curiosity.
Use reflection when nothing else fits. Output nothing else.`
