package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	openaiclientx "github.com/supportops/caseflow/pkg/openaiclient"
)

// Config carries the completion backend settings plus optional per-role
// model and temperature overrides. A negative temperature means "use the
// default".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"800"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	CoordinatorModel       string  `envconfig:"COORDINATOR_MODEL" split_words:"true"`
	AnalystModel           string  `envconfig:"ANALYST_MODEL" split_words:"true"`
	ExecutorModel          string  `envconfig:"EXECUTOR_MODEL" split_words:"true"`
	NotifierModel          string  `envconfig:"NOTIFIER_MODEL" split_words:"true"`
	CoordinatorTemperature float32 `envconfig:"COORDINATOR_TEMPERATURE" split_words:"true" default:"-1"`
	AnalystTemperature     float32 `envconfig:"ANALYST_TEMPERATURE" split_words:"true" default:"-1"`
	ExecutorTemperature    float32 `envconfig:"EXECUTOR_TEMPERATURE" split_words:"true" default:"-1"`
	NotifierTemperature    float32 `envconfig:"NOTIFIER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: completion api key is required", contractx.ErrConfigIncomplete)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrConfigIncomplete)
	}
	return nil
}

// ClientFor resolves the effective client configuration for one role.
func (c Config) ClientFor(role contractx.Role) openaiclientx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.RoleCoordinator:
		if v := strings.TrimSpace(c.CoordinatorModel); v != "" {
			modelName = v
		}
		if c.CoordinatorTemperature >= 0 {
			temp = c.CoordinatorTemperature
		}
	case contractx.RoleAnalyst:
		if v := strings.TrimSpace(c.AnalystModel); v != "" {
			modelName = v
		}
		if c.AnalystTemperature >= 0 {
			temp = c.AnalystTemperature
		}
	case contractx.RoleExecutor:
		if v := strings.TrimSpace(c.ExecutorModel); v != "" {
			modelName = v
		}
		if c.ExecutorTemperature >= 0 {
			temp = c.ExecutorTemperature
		}
	case contractx.RoleNotifier:
		if v := strings.TrimSpace(c.NotifierModel); v != "" {
			modelName = v
		}
		if c.NotifierTemperature >= 0 {
			temp = c.NotifierTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaiclientx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
