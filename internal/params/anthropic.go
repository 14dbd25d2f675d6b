package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// AnthropicV1Params is the sanitized parameter set for Claude v1/v2 models
// using the text-completions schema.
type AnthropicV1Params struct {
	MaxTokensToSample *int
	Temperature       *float64
	TopK              *int
	TopP              *float64
	StopSequences     []string
}

// ConstructAnthropicV1 sanitizes raw parameters for pre-Claude-3 models.
func ConstructAnthropicV1(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &AnthropicV1Params{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "max_tokens_to_sample":
			p.MaxTokensToSample, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "top_k":
			p.TopK, err = intValue(k, v)
		case "top_p":
			p.TopP, err = floatValue(k, v)
		case "stop_sequences":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyAnthropic, k)
		}
		if err != nil {
			return nil, err
		}
	}
	p.StopSequences = MergeStopSequences(md.StopSequences, userStops)
	p.Temperature = defaultTemperature(p.Temperature, md)
	return p, nil
}

// ToMap implements ModelParams.
func (p *AnthropicV1Params) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "max_tokens_to_sample", p.MaxTokensToSample, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putInt(m, "top_k", p.TopK, popNull)
	putFloat(m, "top_p", p.TopP, popNull)
	putStops(m, "stop_sequences", p.StopSequences, popNull)
	return m
}

// AnthropicV3Params is the sanitized parameter set for Claude 3 models
// using the messages schema.
type AnthropicV3Params struct {
	MaxTokens     *int
	Temperature   *float64
	TopK          *int
	TopP          *float64
	StopSequences []string
}

// ConstructAnthropicV3 sanitizes raw parameters for Claude 3 models.
func ConstructAnthropicV3(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &AnthropicV3Params{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "max_tokens":
			p.MaxTokens, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "top_k":
			p.TopK, err = intValue(k, v)
		case "top_p":
			p.TopP, err = floatValue(k, v)
		case "stop_sequences":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyAnthropic, k)
		}
		if err != nil {
			return nil, err
		}
	}
	p.StopSequences = MergeStopSequences(md.StopSequences, userStops)
	p.Temperature = defaultTemperature(p.Temperature, md)
	return p, nil
}

// ToMap implements ModelParams.
func (p *AnthropicV3Params) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "max_tokens", p.MaxTokens, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putInt(m, "top_k", p.TopK, popNull)
	putFloat(m, "top_p", p.TopP, popNull)
	putStops(m, "stop_sequences", p.StopSequences, popNull)
	return m
}
