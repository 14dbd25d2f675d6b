package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

func testDefaults() *defaults.ModelDefaults {
	return &defaults.ModelDefaults{
		UseCase:            core.UseCaseChat,
		DefaultTemperature: 0.7,
		StopSequences:      []string{"|"},
		Prompt:             "{history}\n{input}",
	}
}

func TestMergeStopSequences(t *testing.T) {
	t.Run("union is sorted and deduplicated", func(t *testing.T) {
		merged := MergeStopSequences([]string{"|", "Human:"}, []string{"Human:", "AI:"})
		assert.Equal(t, []string{"AI:", "Human:", "|"}, merged)
	})

	t.Run("order independent", func(t *testing.T) {
		a := MergeStopSequences([]string{"x", "y"}, []string{"z"})
		b := MergeStopSequences([]string{"z"}, []string{"y", "x"})
		assert.Equal(t, a, b)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := MergeStopSequences([]string{"|"}, []string{"END"})
		twice := MergeStopSequences(once, []string{"END"})
		assert.Equal(t, once, twice)
	})

	t.Run("never nil", func(t *testing.T) {
		merged := MergeStopSequences(nil, nil)
		require.NotNil(t, merged)
		assert.Empty(t, merged)
	})
}

func TestConstructAmazon(t *testing.T) {
	t.Run("merges baseline stop sequences", func(t *testing.T) {
		p, err := ConstructAmazon(map[string]any{
			"stopSequences": []any{"Human:"},
			"temperature":   0.2,
		}, testDefaults())
		require.NoError(t, err)

		m := p.ToMap(true)
		assert.Equal(t, []string{"Human:", "|"}, m["stopSequences"])
		assert.Equal(t, 0.2, m["temperature"])
	})

	t.Run("injects default temperature when unset", func(t *testing.T) {
		p, err := ConstructAmazon(map[string]any{"maxTokenCount": 100}, testDefaults())
		require.NoError(t, err)

		m := p.ToMap(true)
		assert.Equal(t, 0.7, m["temperature"])
		assert.Equal(t, 100, m["maxTokenCount"])
	})

	t.Run("rejects unrecognized keys", func(t *testing.T) {
		_, err := ConstructAmazon(map[string]any{"top_p": 0.9}, testDefaults())
		require.Error(t, err)

		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, err.Error(), "top_p")
		assert.Contains(t, err.Error(), "AMAZON")
	})

	t.Run("rejects non-numeric values", func(t *testing.T) {
		_, err := ConstructAmazon(map[string]any{"temperature": []any{1}}, testDefaults())
		require.Error(t, err)
	})
}

func TestToMapPopNull(t *testing.T) {
	p, err := ConstructAnthropicV3(map[string]any{"max_tokens": 512}, testDefaults())
	require.NoError(t, err)

	t.Run("popNull drops unset fields", func(t *testing.T) {
		m := p.ToMap(true)
		assert.Equal(t, map[string]any{
			"max_tokens":     512,
			"temperature":    0.7,
			"stop_sequences": []string{"|"},
		}, m)
	})

	t.Run("without popNull every field is present", func(t *testing.T) {
		m := p.ToMap(false)
		require.Len(t, m, 5)
		assert.Contains(t, m, "top_k")
		assert.Contains(t, m, "top_p")
		assert.Nil(t, m["top_k"])
		assert.Nil(t, m["top_p"])
	})

	t.Run("popNull map keys are a subset of the full map", func(t *testing.T) {
		full := p.ToMap(false)
		for k := range p.ToMap(true) {
			assert.Contains(t, full, k)
		}
	})

	t.Run("empty stop list is dropped only under popNull", func(t *testing.T) {
		md := testDefaults()
		md.StopSequences = []string{}
		p, err := ConstructMeta(map[string]any{}, md)
		require.NoError(t, err)

		assert.NotContains(t, p.ToMap(true), "stop_sequences")
		assert.Contains(t, p.ToMap(false), "stop_sequences")
	})
}

func TestConstructCohereCommand(t *testing.T) {
	t.Run("command models accept generation controls", func(t *testing.T) {
		p, err := ConstructCohereCommand(map[string]any{
			"num_generations":    2,
			"return_likelihoods": "GENERATION",
		}, testDefaults())
		require.NoError(t, err)

		m := p.ToMap(true)
		assert.Equal(t, 2, m["num_generations"])
		assert.Equal(t, "GENERATION", m["return_likelihoods"])
	})

	t.Run("generic cohere rejects command-only keys", func(t *testing.T) {
		_, err := ConstructCohere(map[string]any{"num_generations": 2}, testDefaults())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "num_generations")
	})
}
