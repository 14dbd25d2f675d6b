package params

import (
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// AmazonParams is the sanitized parameter set for Amazon Titan text models.
// The stop-sequence field name on the wire is "stopSequences". Note that the
// baseline stop sequences for Titan conventionally include the literal "|";
// that convention lives in the model-info table, not here.
type AmazonParams struct {
	MaxTokenCount *int
	Temperature   *float64
	TopP          *float64
	StopSequences []string
}

// ConstructAmazon sanitizes raw parameters for the Amazon family.
func ConstructAmazon(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error) {
	p := &AmazonParams{}
	var userStops []string
	var err error
	for k, v := range raw {
		switch k {
		case "maxTokenCount":
			p.MaxTokenCount, err = intValue(k, v)
		case "temperature":
			p.Temperature, err = floatValue(k, v)
		case "topP":
			p.TopP, err = floatValue(k, v)
		case "stopSequences":
			userStops, err = stringSliceValue(k, v)
		default:
			return nil, unrecognized(core.FamilyAmazon, k)
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
func (p *AmazonParams) ToMap(popNull bool) map[string]any {
	m := map[string]any{}
	putInt(m, "maxTokenCount", p.MaxTokenCount, popNull)
	putFloat(m, "temperature", p.Temperature, popNull)
	putFloat(m, "topP", p.TopP, popNull)
	putStops(m, "stopSequences", p.StopSequences, popNull)
	return m
}
