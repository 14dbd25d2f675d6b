package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// MistralParams is the sanitized parameter set for Mistral models. The
// stop-sequence field name on the wire is "stop".
type MistralParams struct {
	MaxTokens   *int
	Temperature *float64
	TopP        *float64
	TopK        *int
	Stop        []string
}

// ConstructMistral sanitizes raw parameters for the Mistral family.
func ConstructMistral(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &MistralParams{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "max_tokens":
			p.MaxTokens, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "top_p":
			p.TopP, err = floatValue(k, v)
		case "top_k":
			p.TopK, err = intValue(k, v)
		case "stop":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyMistral, k)
		}
		if err != nil {
			return nil, err
		}
	}
	p.Stop = MergeStopSequences(md.StopSequences, userStops)
	p.Temperature = defaultTemperature(p.Temperature, md)
	return p, nil
}

// ToMap implements ModelParams.
func (p *MistralParams) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "max_tokens", p.MaxTokens, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putFloat(m, "top_p", p.TopP, popNull)
	putInt(m, "top_k", p.TopK, popNull)
	putStops(m, "stop", p.Stop, popNull)
	return m
}
