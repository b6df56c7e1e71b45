package character_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurochat/neurochat/character"
)

func TestNewRequiresNameAndPersonality(t *testing.T) {
	_, err := character.New(character.Config{Personality: "cheerful"})
	assert.Error(t, err)

	_, err = character.New(character.Config{Name: "Mio"})
	assert.Error(t, err)

	char, err := character.New(character.Config{Name: "Mio", Personality: "cheerful"})
	require.NoError(t, err)
	assert.Equal(t, "Mio", char.Name())
}

func TestFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.json")
	data := `{
		"name": "Mio",
		"gender": "female",
		"age": "22",
		"personality": "warm and curious",
		"speech_style": {
			"first_person": ["I"],
			"common_phrases": ["you know?"],
			"emoji_usage": "moderate"
		},
		"background": "A cafe regular who loves music.",
		"behavior_rules": ["Never break character."]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	char, err := character.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Mio", char.Name())
	assert.Equal(t, "warm and curious", char.Config().Personality)
}

func TestFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	data := `
name: Mio
personality: warm and curious
speech_style:
  first_person: [I]
  emoji_usage: minimal
behavior_rules:
  - Never break character.
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	char, err := character.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Mio", char.Name())
}

func TestFromFileMissing(t *testing.T) {
	_, err := character.FromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gender": "female"}`), 0o600))

	_, err := character.FromFile(path)
	assert.Error(t, err)
}

func TestSystemPromptContents(t *testing.T) {
	char, err := character.New(character.Config{
		Name:        "Mio",
		Gender:      "female",
		Age:         "22",
		Personality: "warm and curious",
		SpeechStyle: character.SpeechStyle{
			FirstPerson:   []string{"I"},
			CommonPhrases: []string{"you know?"},
			EmojiUsage:    "minimal",
		},
		Background:    "A cafe regular who loves music.",
		BehaviorRules: []string{"Never break character."},
	})
	require.NoError(t, err)

	got := char.SystemPrompt()
	assert.Contains(t, got, "You are Mio.")
	assert.Contains(t, got, "## Profile")
	assert.Contains(t, got, "Personality: warm and curious")
	assert.Contains(t, got, "## Speech style")
	assert.Contains(t, got, `"you know?"`)
	assert.Contains(t, got, "## Background")
	assert.Contains(t, got, "A cafe regular who loves music.")
	assert.Contains(t, got, "1. Never break character.")
	assert.Contains(t, got, "memories of past conversations")
}

func TestDefaultPersonaIsValid(t *testing.T) {
	char := character.Default()
	assert.NotEmpty(t, char.Name())
	assert.NotEmpty(t, char.SystemPrompt())
}
