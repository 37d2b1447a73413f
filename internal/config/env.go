package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv 用环境变量覆盖配置，未设置的变量保持原值。
func applyEnv(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr, err := parseAddr(port)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}

	setString(&cfg.Log.Mode, "LOG_MODE")

	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.DSN, "STORE_DSN")
	setString(&cfg.Store.Key, "STORE_MEMORY_KEY")
	setString(&cfg.Store.GamificationKey, "STORE_GAMIFICATION_KEY")
	setString(&cfg.Store.JournalKey, "STORE_JOURNAL_KEY")
	if err := setBool(&cfg.Store.ResetOnCorrupt, "STORE_RESET_ON_CORRUPT"); err != nil {
		return err
	}

	setString(&cfg.Responder.Kind, "RESPONDER_KIND")
	cfg.Responder.Kind = strings.ToLower(cfg.Responder.Kind)
	setString(&cfg.Responder.EndpointURL, "CHAT_ENDPOINT_URL")
	if err := setDuration(&cfg.Responder.Timeout, "CHAT_ENDPOINT_TIMEOUT"); err != nil {
		return err
	}

	setString(&cfg.AI.APIKey, "ARK_API_KEY")
	setString(&cfg.AI.AccessKey, "ARK_ACCESS_KEY")
	setString(&cfg.AI.SecretKey, "ARK_SECRET_KEY")
	setString(&cfg.AI.Model, "Model")
	setString(&cfg.AI.BaseURL, "ARK_BASE_URL")
	setString(&cfg.AI.Region, "ARK_REGION")
	if v, err := parseOptionalFloatEnv("ARK_TEMPERATURE"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.Temperature = v
	}
	if v, err := parseOptionalFloatEnv("ARK_TOP_P"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.TopP = v
	}
	if v, err := parseOptionalIntEnv("ARK_MAX_TOKENS"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.MaxTokens = v
	}
	if err := setBool(&cfg.AI.EmotionLLMEnabled, "AI_EMOTION_LLM_ENABLED"); err != nil {
		return err
	}

	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")

	for key, target := range map[string]*Duration{
		"TYPING_DELAY":      &cfg.Presentation.TypingDelay,
		"BADGE_TOAST":       &cfg.Presentation.BadgeToast,
		"BADGE_FADE":        &cfg.Presentation.BadgeFade,
		"AFFIRMATION_TOAST": &cfg.Presentation.AffirmationToast,
		"AFFIRMATION_FADE":  &cfg.Presentation.AffirmationFade,
	} {
		if err := setDuration(target, key); err != nil {
			return err
		}
	}
	if v, err := parseOptionalIntEnv("JOURNAL_THRESHOLD"); err != nil {
		return err
	} else if v != nil {
		cfg.Presentation.JournalThreshold = *v
	}

	setString(&cfg.Companion.DefaultPersona, "COMPANION_DEFAULT_PERSONA")
	return nil
}

// parseAddr 允许 "8080"、":8080" 或 "127.0.0.1:8080"。
func parseAddr(port string) (string, error) {
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

func setString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func setBool(target *bool, key string) error {
	val, err := parseBoolEnv(key, *target)
	if err != nil {
		return err
	}
	*target = val
	return nil
}

func setDuration(target *Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	target.Duration = d
	return nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
