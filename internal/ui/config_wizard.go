package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"commitscore/pkg/models"
)

// ErrCancelled is returned when the user interrupts a prompt
var ErrCancelled = errors.New("cancelled by user")

// Prompter asks the user questions. The survey-backed implementation is used
// by default; tests replace it.
type Prompter interface {
	Password(message, help string) (string, error)
	Ask(qs []*survey.Question, response interface{}) error
}

type surveyPrompter struct{}

func (surveyPrompter) Password(message, help string) (string, error) {
	var value string
	prompt := &survey.Password{Message: message, Help: help}
	if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return value, nil
}

func (surveyPrompter) Ask(qs []*survey.Question, response interface{}) error {
	return survey.Ask(qs, response)
}

// DefaultPrompter prompts on the terminal
var DefaultPrompter Prompter = surveyPrompter{}

// PromptAPIKey asks for the scoring API key without echoing it
func PromptAPIKey(p Prompter) (string, error) {
	key, err := p.Password("Scoring API key:", "The bearer token sent to the scoring service")
	if err == terminal.InterruptErr {
		return "", ErrCancelled
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// ConfigWizard collects the non-secret settings written by 'config init'
type ConfigWizard struct {
	prompter Prompter
	defaults models.Config
}

// NewConfigWizard creates a wizard pre-filled with defaults
func NewConfigWizard(p Prompter, defaults models.Config) *ConfigWizard {
	return &ConfigWizard{prompter: p, defaults: defaults}
}

// Run asks the questions and returns the resulting configuration
func (w *ConfigWizard) Run() (*models.Config, error) {
	questions := []*survey.Question{
		{
			Name: "endpoint",
			Prompt: &survey.Input{
				Message: "Scoring endpoint:",
				Default: w.defaults.Endpoint,
				Help:    "URL the commit summaries are POSTed to",
			},
			Validate: survey.Required,
		},
		{
			Name: "timeout",
			Prompt: &survey.Input{
				Message: "Request timeout (empty for none):",
				Default: w.defaults.Timeout,
				Help:    "Go duration such as 30s or 2m",
			},
			Validate: validateDuration,
		},
		{
			Name: "output",
			Prompt: &survey.Select{
				Message: "Output format:",
				Options: []string{"text", "table"},
				Default: outputDefault(w.defaults.Output),
			},
		},
	}

	answers := struct {
		Endpoint string
		Timeout  string
		Output   string
	}{}

	if err := w.prompter.Ask(questions, &answers); err != nil {
		if err == terminal.InterruptErr {
			return nil, ErrCancelled
		}
		return nil, err
	}

	cfg := w.defaults
	cfg.Endpoint = strings.TrimSpace(answers.Endpoint)
	cfg.Timeout = strings.TrimSpace(answers.Timeout)
	cfg.Output = answers.Output
	return &cfg, nil
}

func validateDuration(ans interface{}) error {
	s, _ := ans.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.ParseDuration(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("%q is not a duration", s)
	}
	return nil
}

func outputDefault(output string) string {
	if output == "table" {
		return output
	}
	return "text"
}
