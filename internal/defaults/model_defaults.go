package defaults

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
)

// Record mirrors one item of the model-info table. Optional fields are
// pointers so that a missing required attribute is distinguishable from a
// zero value.
type Record struct {
	UseCase              string            `dynamodbav:"UseCase"`
	SortKey              string            `dynamodbav:"SortKey"`
	AllowsStreaming      bool              `dynamodbav:"AllowsStreaming"`
	DefaultTemperature   *float64          `dynamodbav:"DefaultTemperature"`
	MinTemperature       float64           `dynamodbav:"MinTemperature"`
	MaxTemperature       float64           `dynamodbav:"MaxTemperature"`
	MemoryConfig         map[string]string `dynamodbav:"MemoryConfig"`
	Prompt               string            `dynamodbav:"Prompt"`
	DisambiguationPrompt string            `dynamodbav:"DisambiguationPrompt"`
	MaxChatMessageSize   int               `dynamodbav:"MaxChatMessageSize"`
	MaxPromptSize        int               `dynamodbav:"MaxPromptSize"`
	StopSequences        []string          `dynamodbav:"StopSequences"`
}

// Source fetches a model-info record. A nil record with a nil error means
// the item does not exist; required-field validation happens in New.
type Source interface {
	GetItem(ctx context.Context, useCase core.UseCase, sortKey string) (*Record, error)
}

// SortKey builds the model-info sort key for a provider and model.
func SortKey(provider, model string) string {
	return provider + "#" + model
}

// ModelDefaults holds the validated per-(use case, provider, model) default
// parameters. Constructed fresh for every model build; never cached here.
type ModelDefaults struct {
	UseCase              core.UseCase
	AllowsStreaming      bool
	DefaultTemperature   float64
	MinTemperature       float64
	MaxTemperature       float64
	MemoryConfig         map[string]string
	Prompt               string
	DisambiguationPrompt string
	MaxChatMessageSize   int
	MaxPromptSize        int
	StopSequences        []string
}

// New validates a fetched record into ModelDefaults. A missing record or a
// missing required field is a configuration error.
func New(useCase core.UseCase, sortKey string, rec *Record) (*ModelDefaults, error) {
	if rec == nil {
		return nil, core.NewConfigurationError(
			"no model info record found for use case %q and key %q", useCase, sortKey)
	}
	if rec.Prompt == "" {
		return nil, core.NewConfigurationError(
			"model info record for %q is missing the required Prompt field", sortKey)
	}
	if rec.DefaultTemperature == nil {
		return nil, core.NewConfigurationError(
			"model info record for %q is missing the required DefaultTemperature field", sortKey)
	}
	if useCase == core.UseCaseRAGChat && rec.DisambiguationPrompt == "" {
		return nil, core.NewConfigurationError(
			"model info record for %q is missing the DisambiguationPrompt required for RAG chat", sortKey)
	}

	stops := rec.StopSequences
	if stops == nil {
		stops = []string{}
	}

	return &ModelDefaults{
		UseCase:              useCase,
		AllowsStreaming:      rec.AllowsStreaming,
		DefaultTemperature:   *rec.DefaultTemperature,
		MinTemperature:       rec.MinTemperature,
		MaxTemperature:       rec.MaxTemperature,
		MemoryConfig:         rec.MemoryConfig,
		Prompt:               rec.Prompt,
		DisambiguationPrompt: rec.DisambiguationPrompt,
		MaxChatMessageSize:   rec.MaxChatMessageSize,
		MaxPromptSize:        rec.MaxPromptSize,
		StopSequences:        stops,
	}, nil
}

// Fetch loads and validates the defaults for one model in one call.
func Fetch(ctx context.Context, src Source, useCase core.UseCase, provider, model string) (*ModelDefaults, error) {
	key := SortKey(provider, model)
	rec, err := src.GetItem(ctx, useCase, key)
	if err != nil {
		return nil, core.NewConfigurationError("failed to fetch model info for %q: %v", key, err)
	}
	return New(useCase, key, rec)
}
