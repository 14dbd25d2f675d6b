package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// CohereParams is the sanitized parameter set for Cohere models. The
// command variant additionally recognizes generation-control fields; the
// generic variant rejects them.
type CohereParams struct {
	MaxTokens         *int
	Temperature       *float64
	P                 *float64
	K                 *int
	NumGenerations    *int
	ReturnLikelihoods *string
	LogitBias         map[string]any
	Truncate          *string
	StopSequences     []string
}

func constructCohere(raw map[string]any, md *defaults.ModelDefaults, commandFields bool) (ModelParams, error) {
	p := &CohereParams{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "max_tokens":
			p.MaxTokens, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "p":
			p.P, err = floatValue(k, v)
		case "k":
			p.K, err = intValue(k, v)
		case "stop_sequences":
			userStops, err = stringSliceValue(k, v)
		case "num_generations", "return_likelihoods", "logit_bias", "truncate":
			if !commandFields {
				return nil, unrecognized(core.FamilyCohere, k)
			}
			switch k {
			case "num_generations":
				p.NumGenerations, err = intValue(k, v)
			case "return_likelihoods":
				p.ReturnLikelihoods, err = stringValue(k, v)
			case "logit_bias":
				p.LogitBias, err = mapValue(k, v)
			case "truncate":
				p.Truncate, err = stringValue(k, v)
			}
		default:
			return nil, unrecognized(core.FamilyCohere, k)
		}
		if err != nil {
			return nil, err
		}
	}
	p.StopSequences = MergeStopSequences(md.StopSequences, userStops)
	p.Temperature = defaultTemperature(p.Temperature, md)
	return p, nil
}

// ConstructCohere sanitizes raw parameters for generic Cohere models.
func ConstructCohere(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	return constructCohere(raw, md, false)
}

// ConstructCohereCommand sanitizes raw parameters for Cohere Command text
// models.
func ConstructCohereCommand(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	return constructCohere(raw, md, true)
}

// ToMap implements ModelParams.
func (p *CohereParams) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "max_tokens", p.MaxTokens, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putFloat(m, "p", p.P, popNull)
	putInt(m, "k", p.K, popNull)
	putInt(m, "num_generations", p.NumGenerations, popNull)
	putString(m, "return_likelihoods", p.ReturnLikelihoods, popNull)
	putMap(m, "logit_bias", p.LogitBias, popNull)
	putString(m, "truncate", p.Truncate, popNull)
	putStops(m, "stop_sequences", p.StopSequences, popNull)
	return m
}
