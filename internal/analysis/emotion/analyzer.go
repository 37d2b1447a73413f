package emotion

import "strings"

// Label 表示日记与对话使用的情绪标签。
type Label string

const (
	Joy        Label = "joy"
	Wonder     Label = "wonder"
	Reflection Label = "reflection"
	Curiosity  Label = "curiosity"
)

// Default 在没有任何关键词命中时返回。
const Default = Reflection

// Rule 将一组关键词映射到情绪标签。
type Rule struct {
	Label    Label
	Keywords []string
}

// 按优先级排列，第一条命中的规则胜出。
var rules = []Rule{
	{Label: Joy, Keywords: []string{"happy", "glad", "grateful", "thankful", "joy", "love", "excited", "smile", "wonderful"}},
	{Label: Wonder, Keywords: []string{"amazing", "beautiful", "wow", "magical", "incredible", "awe", "dream"}},
	{Label: Curiosity, Keywords: []string{"curious", "wondering", "explore", "discover", "what if", "why", "how come"}},
	{Label: Reflection, Keywords: []string{"feel", "think", "remember", "realize", "anxious", "sad", "worried", "lonely", "stress"}},
}

// Rules 返回规则表的副本，便于测试与扩展。
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Label: r.Label, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify 按优先级扫描规则表，返回第一条命中规则的标签。
func Classify(text string) Label {
	if rule, ok := Match(text); ok {
		return rule.Label
	}
	return Default
}

// Match 返回第一条命中的规则。
func Match(text string) (Rule, bool) {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return Rule{}, false
	}
	for _, rule := range rules {
		for _, word := range rule.Keywords {
			if strings.Contains(normalized, word) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// ParseLabel 校验外部传入的标签。
func ParseLabel(raw string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case Joy:
		return Joy, true
	case Wonder:
		return Wonder, true
	case Reflection:
		return Reflection, true
	case Curiosity:
		return Curiosity, true
	default:
		return "", false
	}
}
