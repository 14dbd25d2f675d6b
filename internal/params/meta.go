package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// MetaParams is the sanitized parameter set for Meta Llama models.
type MetaParams struct {
	MaxGenLen     *int
	Temperature   *float64
	TopP          *float64
	StopSequences []string
}

// ConstructMeta sanitizes raw parameters for the Meta family.
func ConstructMeta(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &MetaParams{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "max_gen_len":
			p.MaxGenLen, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "top_p":
			p.TopP, err = floatValue(k, v)
		case "stop_sequences":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyMeta, k)
		}
		if err != nil {
			return nil, err
		}
	}
	p.StopSequences = MergeStopSequences(md.StopSequences, userStops)
	p.Temperature = defaultTemperature(p.Temperature, md)
	return p, nil
}

// ToMap implements ModelParams. Llama models take no stop-sequence body
// field; the merged sequences still surface here so that the caller can
// apply them post-generation.
func (p *MetaParams) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "max_gen_len", p.MaxGenLen, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putFloat(m, "top_p", p.TopP, popNull)
	putStops(m, "stop_sequences", p.StopSequences, popNull)
	return m
}
