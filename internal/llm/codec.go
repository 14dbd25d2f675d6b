package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/llm-chat-backend/internal/core"
)

// IsClaude3 reports whether a Bedrock Anthropic model id uses the messages
// schema instead of text completions.
func IsClaude3(modelID string) bool {
	return strings.Contains(modelID, "claude-3")
}

// BuildBedrockPayload marshals the InvokeModel request body for a model
// family from the rendered prompt and the sanitized parameters.
func BuildBedrockPayload(family core.BedrockModelFamily, modelID, prompt string, params map[string]any) ([]byte, error) {
	body := map[string]any{}

	switch family {
	case core.FamilyAmazon:
		// Titan nests generation parameters under textGenerationConfig
		body["inputText"] = prompt
		body["textGenerationConfig"] = params
	case core.FamilyAnthropic:
		if IsClaude3(modelID) {
			for k, v := range params {
				body[k] = v
			}
			body["anthropic_version"] = "bedrock-2023-05-31"
			body["messages"] = []map[string]any{
				{"role": "user", "content": prompt},
			}
		} else {
			for k, v := range params {
				body[k] = v
			}
			body["prompt"] = fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt)
		}
	case core.FamilyMeta:
		for k, v := range params {
			// Llama takes no stop-sequence body field
			if k == "stop_sequences" {
				continue
			}
			body[k] = v
		}
		body["prompt"] = prompt
	case core.FamilyAI21, core.FamilyCohere:
		for k, v := range params {
			body[k] = v
		}
		body["prompt"] = prompt
	case core.FamilyMistral:
		for k, v := range params {
			body[k] = v
		}
		body["prompt"] = fmt.Sprintf("<s>[INST] %s [/INST]", prompt)
	default:
		return nil, core.NewValidationError("model family %q is not supported", family)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return payload, nil
}

// ParseBedrockResponse extracts the generated text from an InvokeModel
// response body for a model family.
func ParseBedrockResponse(family core.BedrockModelFamily, modelID string, body []byte) (string, error) {
	switch family {
	case core.FamilyAmazon:
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	case core.FamilyAnthropic:
		if IsClaude3(modelID) {
			var resp struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
			}
			if len(resp.Content) == 0 {
				return "", fmt.Errorf("empty response from Claude model")
			}
			return resp.Content[0].Text, nil
		}
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return resp.Completion, nil
	case core.FamilyAI21:
		var resp struct {
			Completions []struct {
				Data struct {
					Text string `json:"text"`
				} `json:"data"`
			} `json:"completions"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Jurassic response: %w", err)
		}
		if len(resp.Completions) == 0 {
			return "", fmt.Errorf("empty response from Jurassic model")
		}
		return resp.Completions[0].Data.Text, nil
	case core.FamilyMeta:
		var resp struct {
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Llama response: %w", err)
		}
		return resp.Generation, nil
	case core.FamilyCohere:
		var resp struct {
			Generations []struct {
				Text string `json:"text"`
			} `json:"generations"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Cohere response: %w", err)
		}
		if len(resp.Generations) == 0 {
			return "", fmt.Errorf("empty response from Cohere model")
		}
		return resp.Generations[0].Text, nil
	case core.FamilyMistral:
		var resp struct {
			Outputs []struct {
				Text string `json:"text"`
			} `json:"outputs"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Mistral response: %w", err)
		}
		if len(resp.Outputs) == 0 {
			return "", fmt.Errorf("empty response from Mistral model")
		}
		return resp.Outputs[0].Text, nil
	default:
		return "", core.NewValidationError("model family %q is not supported", family)
	}
}
