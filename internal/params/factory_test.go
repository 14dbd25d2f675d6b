package params

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-chat-backend/internal/core"
)

// sanitizerName identifies which constructor a resolved Sanitizer is, since
// function values cannot be compared directly.
func sanitizerName(s Sanitizer) uintptr {
	return reflect.ValueOf(s).Pointer()
}

func TestGetAdapter(t *testing.T) {
	f := NewAdapterFactory()

	t.Run("claude 3 model ids resolve to the messages schema", func(t *testing.T) {
		s, err := f.GetAdapter(core.FamilyAnthropic, "anthropic.claude-3-haiku-20240307-v1:0")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructAnthropicV3), sanitizerName(s))
	})

	t.Run("claude 3 inference profiles resolve to the messages schema", func(t *testing.T) {
		s, err := f.GetAdapter(core.FamilyAnthropic, "us.anthropic.claude-3-haiku-20240307-v1:0")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructAnthropicV3), sanitizerName(s))
	})

	t.Run("claude 3 model ARNs resolve to the messages schema", func(t *testing.T) {
		s, err := f.GetAdapter(core.FamilyAnthropic,
			"arn:aws:bedrock:us-east-1:123456789012:inference-profile/us.anthropic.claude-3-5-sonnet-20240620-v1:0")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructAnthropicV3), sanitizerName(s))
	})

	t.Run("older claude models fall back to the family default", func(t *testing.T) {
		s, err := f.GetAdapter(core.FamilyAnthropic, "anthropic.claude-v2")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructAnthropicV1), sanitizerName(s))
	})

	t.Run("cohere command overrides the generic entry", func(t *testing.T) {
		s, err := f.GetAdapter(core.FamilyCohere, "cohere.command-text-v14")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructCohereCommand), sanitizerName(s))

		s, err = f.GetAdapter(core.FamilyCohere, "cohere.embed-english-v3")
		require.NoError(t, err)
		assert.Equal(t, sanitizerName(ConstructCohere), sanitizerName(s))
	})

	t.Run("family keys are case sensitive", func(t *testing.T) {
		_, err := f.GetAdapter(core.BedrockModelFamily("Ai21"), "ai21.j2-ultra")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
}

func TestFamilyForModelID(t *testing.T) {
	tests := []struct {
		name    string
		modelID string
		family  core.BedrockModelFamily
		wantErr bool
	}{
		{name: "titan", modelID: "amazon.titan-text-lite-v1", family: core.FamilyAmazon},
		{name: "claude", modelID: "anthropic.claude-3-sonnet-20240229-v1:0", family: core.FamilyAnthropic},
		{name: "inference profile", modelID: "us.anthropic.claude-3-5-sonnet-20240620-v1:0", family: core.FamilyAnthropic},
		{name: "model arn", modelID: "arn:aws:bedrock:us-east-1::foundation-model/meta.llama3-8b-instruct-v1:0", family: core.FamilyMeta},
		{name: "mistral", modelID: "mistral.mistral-7b-instruct-v0:2", family: core.FamilyMistral},
		{name: "unknown vendor", modelID: "acme.frontier-v1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, err := FamilyForModelID(tt.modelID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.family, family)
		})
	}
}
