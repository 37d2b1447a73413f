package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Log          LogConfig          `toml:"log"`
	Store        StoreConfig        `toml:"store"`
	Responder    ResponderConfig    `toml:"responder"`
	AI           AIConfig           `toml:"ai"`
	OpenAI       OpenAIConfig       `toml:"openai"`
	Presentation PresentationConfig `toml:"presentation"`
	Companion    CompanionConfig    `toml:"companion"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

// StoreConfig selects the persistence backend and the slots of the three
// persisted documents.
type StoreConfig struct {
	Driver          string `toml:"driver"`
	DSN             string `toml:"dsn"`
	Key             string `toml:"key"`
	GamificationKey string `toml:"gamification_key"`
	JournalKey      string `toml:"journal_key"`
	ResetOnCorrupt  bool   `toml:"reset_on_corrupt"`
}

// ResponderConfig 选择回复来源：endpoint、ark 或 openai。
type ResponderConfig struct {
	Kind        string   `toml:"kind"`
	EndpointURL string   `toml:"endpoint_url"`
	Timeout     Duration `toml:"timeout"`
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey            string   `toml:"api_key"`
	AccessKey         string   `toml:"access_key"`
	SecretKey         string   `toml:"secret_key"`
	Model             string   `toml:"model"`
	BaseURL           string   `toml:"base_url"`
	Region            string   `toml:"region"`
	Temperature       *float64 `toml:"temperature"`
	TopP              *float64 `toml:"top_p"`
	MaxTokens         *int     `toml:"max_tokens"`
	EmotionLLMEnabled bool     `toml:"emotion_llm_enabled"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// PresentationConfig holds the toast and typing timings.
type PresentationConfig struct {
	TypingDelay      Duration `toml:"typing_delay"`
	BadgeToast       Duration `toml:"badge_toast"`
	BadgeFade        Duration `toml:"badge_fade"`
	AffirmationToast Duration `toml:"affirmation_toast"`
	AffirmationFade  Duration `toml:"affirmation_fade"`
	JournalThreshold int      `toml:"journal_threshold"`
}

type CompanionConfig struct {
	DefaultPersona string `toml:"default_persona"`
}

// Duration 允许在 TOML 中写 "1s"、"300ms"。
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Mode: "dev"},
		Store: StoreConfig{
			Driver:          "file",
			DSN:             "data",
			Key:             "mindful-reflect-memory",
			GamificationKey: "mindful-reflect-gamification",
			JournalKey:      "mindful-reflect-journal",
		},
		Responder: ResponderConfig{Kind: "endpoint", EndpointURL: "http://localhost:8000/chat"},
		AI: AIConfig{
			BaseURL: "https://ark.cn-beijing.volces.com/api/v3",
			Region:  "cn-beijing",
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
		Presentation: PresentationConfig{
			TypingDelay:      Duration{time.Second},
			BadgeToast:       Duration{4 * time.Second},
			BadgeFade:        Duration{300 * time.Millisecond},
			AffirmationToast: Duration{6 * time.Second},
			AffirmationFade:  Duration{500 * time.Millisecond},
			JournalThreshold: 50,
		},
		Companion: CompanionConfig{DefaultPersona: "sage"},
	}
}

// Load 读取默认值、可选的 TOML 文件 (WHISPERS_CONFIG)，最后用环境变量覆盖。
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("WHISPERS_CONFIG")); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile overlays the TOML file at path onto cfg. A missing file is an error.
func LoadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Responder.Kind {
	case "endpoint":
	case "ark":
		if !c.AI.Enabled() {
			return fmt.Errorf("responder kind ark requires ARK_API_KEY (or AK/SK) and Model")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("responder kind openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("invalid RESPONDER_KIND value %q", c.Responder.Kind)
	}
	if c.Presentation.JournalThreshold < 1 {
		return fmt.Errorf("journal threshold must be positive, got %d", c.Presentation.JournalThreshold)
	}
	if c.Store.Key == c.Store.GamificationKey || c.Store.Key == c.Store.JournalKey || c.Store.GamificationKey == c.Store.JournalKey {
		return fmt.Errorf("store keys must be distinct")
	}
	return nil
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}
