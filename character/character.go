// Package character loads the persona configuration and renders the
// system prompt the generation provider receives.
package character

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SpeechStyle describes how the persona talks.
type SpeechStyle struct {
	FirstPerson     []string `json:"first_person" yaml:"first_person"`
	SentenceEndings []string `json:"sentence_endings" yaml:"sentence_endings"`
	CommonPhrases   []string `json:"common_phrases" yaml:"common_phrases"`
	EmojiUsage      string   `json:"emoji_usage" yaml:"emoji_usage"`
}

// Config is the persona definition as stored on disk.
type Config struct {
	Name          string      `json:"name" yaml:"name" validate:"required"`
	Gender        string      `json:"gender" yaml:"gender"`
	Age           string      `json:"age" yaml:"age"`
	Personality   string      `json:"personality" yaml:"personality" validate:"required"`
	SpeechStyle   SpeechStyle `json:"speech_style" yaml:"speech_style"`
	Background    string      `json:"background" yaml:"background"`
	BehaviorRules []string    `json:"behavior_rules" yaml:"behavior_rules"`
}

// Character is a loaded, validated persona.
type Character struct {
	cfg Config
}

// FromFile loads a persona from a JSON or YAML file, chosen by
// extension.
func FromFile(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse character config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse character config: %w", err)
		}
	}

	return New(cfg)
}

// New validates the config and wraps it.
func New(cfg Config) (*Character, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid character config: %w", err)
	}
	return &Character{cfg: cfg}, nil
}

// Default returns the built-in fallback persona used when no config
// file is present.
func Default() *Character {
	return &Character{cfg: Config{
		Name:        "Assistant",
		Gender:      "neutral",
		Age:         "unknown",
		Personality: "kind and eager to help",
		SpeechStyle: SpeechStyle{
			FirstPerson: []string{"I"},
			EmojiUsage:  "minimal",
		},
		Background: "An AI built to support the user.",
		BehaviorRules: []string{
			"Answer the user's questions politely.",
			"Favor clear, simple explanations.",
		},
	}}
}

// Name returns the persona's display name.
func (c *Character) Name() string {
	return c.cfg.Name
}

// Config returns a copy of the underlying configuration.
func (c *Character) Config() Config {
	return c.cfg
}

// SystemPrompt renders the persona into the system prompt. The final
// instruction tells the model to weave provided conversation memories
// into its replies.
func (c *Character) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.\n\n", c.cfg.Name)

	b.WriteString("## Profile\n")
	fmt.Fprintf(&b, "- Gender: %s\n", c.cfg.Gender)
	fmt.Fprintf(&b, "- Age: %s\n", c.cfg.Age)
	fmt.Fprintf(&b, "- Personality: %s\n\n", c.cfg.Personality)

	b.WriteString("## Speech style\n")
	b.WriteString(c.formatSpeechStyle())
	b.WriteString("\n\n")

	if c.cfg.Background != "" {
		b.WriteString("## Background\n")
		b.WriteString(c.cfg.Background)
		b.WriteString("\n\n")
	}

	b.WriteString("## Behavior rules\n")
	b.WriteString(c.formatBehaviorRules())
	b.WriteString("\n\n")

	b.WriteString("Stay in character at all times. ")
	b.WriteString("When memories of past conversations with the user are provided, take them into account in your reply.")

	return b.String()
}

func (c *Character) formatSpeechStyle() string {
	style := c.cfg.SpeechStyle
	var lines []string

	if len(style.FirstPerson) > 0 {
		lines = append(lines, fmt.Sprintf("- First person: %s", strings.Join(style.FirstPerson, " or ")))
	}
	if len(style.SentenceEndings) > 0 {
		lines = append(lines, fmt.Sprintf("- Sentence endings: %s", strings.Join(style.SentenceEndings, " / ")))
	}
	if len(style.CommonPhrases) > 0 {
		lines = append(lines, "- Characteristic phrases:")
		for _, phrase := range style.CommonPhrases {
			lines = append(lines, fmt.Sprintf("  * %q", phrase))
		}
	}
	if style.EmojiUsage != "" {
		desc := map[string]string{
			"minimal":  "Rarely uses emoji (at most one per message).",
			"moderate": "Uses emoji in moderation.",
			"frequent": "Uses emoji frequently.",
		}[style.EmojiUsage]
		if desc == "" {
			desc = style.EmojiUsage
		}
		lines = append(lines, "- "+desc)
	}

	if len(lines) == 0 {
		return "No particular constraints."
	}
	return strings.Join(lines, "\n")
}

func (c *Character) formatBehaviorRules() string {
	if len(c.cfg.BehaviorRules) == 0 {
		return "No particular constraints."
	}
	var lines []string
	for i, rule := range c.cfg.BehaviorRules {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, rule))
	}
	return strings.Join(lines, "\n")
}
