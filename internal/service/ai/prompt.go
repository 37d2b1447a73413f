package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/whispers/backend/internal/model/persona"
)

// PromptTemplate 描述某个陪伴角色的系统提示。
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// PromptManager 管理各角色的提示模板。
type PromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPromptManager creates a manager with the built-in companion templates.
func NewPromptManager() *PromptManager {
	pm := &PromptManager{templates: make(map[string]*PromptTemplate)}
	pm.loadDefaultTemplates()
	return pm
}

// Template returns the template for personaID.
func (pm *PromptManager) Template(personaID string) (*PromptTemplate, error) {
	tpl, ok := pm.templates[personaID]
	if !ok {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return tpl, nil
}

// BuildSystemPrompt 组合角色模板与记忆上下文。
func (pm *PromptManager) BuildSystemPrompt(p *persona.Persona, pc PatientContext) string {
	var b strings.Builder
	tpl, err := pm.Template(p.ID)
	if err != nil {
		b.WriteString(basicSystemPrompt(p))
	} else {
		fmt.Fprintf(&b, "%s\n\nCompanion:\n- Name: %s\n- Role: %s\n- Tone: %s\n", tpl.SystemPrompt, p.Name, p.Title, p.Tone)
		b.WriteString("\nPersonality hints:\n")
		b.WriteString(bulletList(tpl.PersonalityHints))
		b.WriteString("\nRules:\n")
		b.WriteString(bulletList(tpl.ContextRules))
	}
	b.WriteString(describePatient(pc))
	return b.String()
}

func basicSystemPrompt(p *persona.Persona) string {
	return fmt.Sprintf(`You are %s, %s.
Speak in a %s voice. %s
Keep replies short, kind and free of clinical diagnosis.`, p.Name, p.Title, p.Tone, p.PromptHint)
}

func describePatient(pc PatientContext) string {
	var b strings.Builder
	b.WriteString("\nWhat you remember about this person:\n")
	fmt.Fprintf(&b, "- Profile: %s\n", pc.Profile)
	fmt.Fprintf(&b, "- Emotional patterns: %s\n", pc.EmotionalPatterns)
	if len(pc.KeyInsights) > 0 {
		fmt.Fprintf(&b, "- Key insights: %s\n", strings.Join(pc.KeyInsights, "; "))
	}
	if len(pc.PreviousSessions) > 0 {
		fmt.Fprintf(&b, "- Previous sessions: %s\n", strings.Join(pc.PreviousSessions, " | "))
	}
	return b.String()
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}

func (pm *PromptManager) loadDefaultTemplates() {
	pm.templates["sage"] = &PromptTemplate{
		SystemPrompt: `You are Dr. Sage, a reflective companion inside a private journaling space.
You are not a therapist and never diagnose. You listen, reflect feelings back and invite gentle curiosity.`,
		PersonalityHints: []string{
			"Name the feeling you hear before offering any perspective",
			"Ask at most one open question per reply",
			"Refer back to earlier themes when they are relevant",
			"Celebrate small acts of courage and self-kindness",
		},
		ContextRules: []string{
			"Reply in two to four sentences",
			"If the person mentions self-harm, encourage reaching out to local emergency services or a trusted person",
			"Never invent memories the person has not shared",
		},
	}

	pm.templates["whisper"] = &PromptTemplate{
		SystemPrompt: `You are Whisper, a gentle guide in a dream world shaped by memories.
Places like the Whisper Tree, the Memory Pool and the Echo Cave mirror the person's feelings.`,
		PersonalityHints: []string{
			"Use soft dream imagery, never more than one image per reply",
			"Be playful when the person is light and slow down when they are heavy",
			"Invite the person to leave a memory in the journal when something matters",
		},
		ContextRules: []string{
			"Reply in two to four sentences",
			"Stay inside the dream-world voice unless the person asks for plain talk",
			"Never invent memories the person has not shared",
		},
	}
}
