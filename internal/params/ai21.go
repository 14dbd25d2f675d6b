package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// AI21Params is the sanitized parameter set for AI21 Jurassic models. The
// penalty fields are nested objects on the wire and are passed through
// opaquely.
type AI21Params struct {
	MaxTokens        *int
	Temperature      *float64
	TopP             *float64
	CountPenalty     map[string]any
	PresencePenalty  map[string]any
	FrequencyPenalty map[string]any
	StopSequences    []string
}

// ConstructAI21 sanitizes raw parameters for the AI21 family.
func ConstructAI21(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &AI21Params{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "maxTokens":
			p.MaxTokens, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "topP":
			p.TopP, err = floatValue(k, v)
		case "countPenalty":
			p.CountPenalty, err = mapValue(k, v)
		case "presencePenalty":
			p.PresencePenalty, err = mapValue(k, v)
		case "frequencyPenalty":
			p.FrequencyPenalty, err = mapValue(k, v)
		case "stopSequences":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyAI21, k)
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
func (p *AI21Params) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "maxTokens", p.MaxTokens, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putFloat(m, "topP", p.TopP, popNull)
	putMap(m, "countPenalty", p.CountPenalty, popNull)
	putMap(m, "presencePenalty", p.PresencePenalty, popNull)
	putMap(m, "frequencyPenalty", p.FrequencyPenalty, popNull)
	putStops(m, "stopSequences", p.StopSequences, popNull)
	return m
}
