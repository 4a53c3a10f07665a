package ui

import (
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitscore/pkg/models"
)

// scriptedPrompter answers by question name
type scriptedPrompter struct {
	answers  map[string]interface{}
	password string
	err      error
	asked    []string
}

func (p *scriptedPrompter) Password(message, help string) (string, error) {
	p.asked = append(p.asked, message)
	return p.password, p.err
}

func (p *scriptedPrompter) Ask(qs []*survey.Question, response interface{}) error {
	if p.err != nil {
		return p.err
	}
	for _, q := range qs {
		p.asked = append(p.asked, q.Name)
		value, ok := p.answers[q.Name]
		if !ok {
			continue
		}
		if q.Validate != nil {
			if err := q.Validate(value); err != nil {
				return err
			}
		}
		if err := core.WriteAnswer(response, q.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func TestPromptAPIKey(t *testing.T) {
	p := &scriptedPrompter{password: "  sk-typed \n"}

	key, err := PromptAPIKey(p)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed", key)
	assert.Equal(t, []string{"Scoring API key:"}, p.asked)
}

func TestPromptAPIKeyInterrupted(t *testing.T) {
	_, err := PromptAPIKey(&scriptedPrompter{err: terminal.InterruptErr})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestConfigWizard(t *testing.T) {
	p := &scriptedPrompter{answers: map[string]interface{}{
		"endpoint": "http://localhost:8080/analyze",
		"timeout":  "30s",
		"output":   core.OptionAnswer{Value: "table", Index: 1},
	}}

	defaults := models.Config{Endpoint: "https://example.invalid", LogLevel: "info"}
	cfg, err := NewConfigWizard(p, defaults).Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"endpoint", "timeout", "output"}, p.asked)
	assert.Equal(t, "http://localhost:8080/analyze", cfg.Endpoint)
	assert.Equal(t, "30s", cfg.Timeout)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel, "unasked fields keep their defaults")
	assert.Empty(t, cfg.APIKey)
}

func TestConfigWizardRejectsBadTimeout(t *testing.T) {
	p := &scriptedPrompter{answers: map[string]interface{}{
		"endpoint": "http://localhost",
		"timeout":  "soon",
	}}

	_, err := NewConfigWizard(p, models.Config{}).Run()
	assert.Error(t, err)
}

func TestConfigWizardInterrupted(t *testing.T) {
	_, err := NewConfigWizard(&scriptedPrompter{err: terminal.InterruptErr}, models.Config{}).Run()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, validateDuration(""))
	assert.NoError(t, validateDuration("2m"))
	assert.Error(t, validateDuration("2 minutes"))
}

func TestOutputDefault(t *testing.T) {
	assert.Equal(t, "table", outputDefault("table"))
	assert.Equal(t, "text", outputDefault(""))
	assert.Equal(t, "text", outputDefault("xml"))
}
