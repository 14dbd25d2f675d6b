package core

// LLMProvider identifies which backend serves a use case's chat model.
type LLMProvider string

const (
	ProviderBedrock     LLMProvider = "Bedrock"
	ProviderAnthropic   LLMProvider = "Anthropic"
	ProviderHuggingFace LLMProvider = "HuggingFace"
	ProviderSageMaker   LLMProvider = "SageMaker"
)

// UseCase distinguishes plain chat from retrieval-augmented chat. Model
// defaults are recorded separately per use case.
type UseCase string

const (
	UseCaseChat    UseCase = "Chat"
	UseCaseRAGChat UseCase = "RAGChat"
)

// BedrockModelFamily groups Bedrock models that share a request/response
// parameter schema.
type BedrockModelFamily string

const (
	FamilyAmazon    BedrockModelFamily = "AMAZON"
	FamilyAnthropic BedrockModelFamily = "ANTHROPIC"
	FamilyAI21      BedrockModelFamily = "AI21"
	FamilyMeta      BedrockModelFamily = "META"
	FamilyCohere    BedrockModelFamily = "COHERE"
	FamilyMistral   BedrockModelFamily = "MISTRAL"
)

// KnowledgeBaseType identifies the backing document index.
type KnowledgeBaseType string

const (
	KnowledgeBaseKendra  KnowledgeBaseType = "Kendra"
	KnowledgeBaseBedrock KnowledgeBaseType = "Bedrock"
)

// SupportedKnowledgeBaseTypes lists the accepted KnowledgeBaseType values.
var SupportedKnowledgeBaseTypes = []KnowledgeBaseType{KnowledgeBaseKendra, KnowledgeBaseBedrock}

// ConversationMemoryType identifies the conversation history backend.
type ConversationMemoryType string

const MemoryDynamoDB ConversationMemoryType = "DynamoDB"

// SupportedMemoryTypes lists the accepted ConversationMemoryType values.
var SupportedMemoryTypes = []ConversationMemoryType{MemoryDynamoDB}

// UseCaseConfig is the stored configuration for one deployed chat use case.
// It is loaded once per invocation and never mutated afterwards.
type UseCaseConfig struct {
	UseCaseName              string                    `json:"UseCaseName"`
	LlmParams                LlmParams                 `json:"LlmParams"`
	KnowledgeBaseParams      *KnowledgeBaseParams      `json:"KnowledgeBaseParams,omitempty"`
	ConversationMemoryParams *ConversationMemoryParams `json:"ConversationMemoryParams,omitempty"`
}

// LlmParams configures the model half of a use case.
type LlmParams struct {
	ModelProvider      LLMProvider         `json:"ModelProvider"`
	ModelID            string              `json:"ModelId,omitempty"`
	BedrockLlmParams   *BedrockLlmParams   `json:"BedrockLlmParams,omitempty"`
	SageMakerLlmParams *SageMakerLlmParams `json:"SageMakerLlmParams,omitempty"`
	ModelParams        map[string]any      `json:"ModelParams,omitempty"`
	PromptTemplate     string              `json:"PromptTemplate,omitempty"`
	Temperature        *float64            `json:"Temperature,omitempty"`
	Streaming          bool                `json:"Streaming,omitempty"`
	Verbose            bool                `json:"Verbose,omitempty"`
	RAGEnabled         bool                `json:"RAGEnabled,omitempty"`
}

// BedrockLlmParams carries Bedrock-specific model addressing and guardrails.
type BedrockLlmParams struct {
	ModelID             string `json:"ModelId,omitempty"`
	InferenceProfileID  string `json:"InferenceProfileId,omitempty"`
	ModelARN            string `json:"ModelArn,omitempty"`
	GuardrailIdentifier string `json:"GuardrailIdentifier,omitempty"`
	GuardrailVersion    string `json:"GuardrailVersion,omitempty"`
}

// SageMakerLlmParams addresses a SageMaker inference endpoint. The input
// schema is a JSON template with placeholders substituted per request and
// the output path is a dotted path into the endpoint's JSON response.
type SageMakerLlmParams struct {
	EndpointName            string         `json:"EndpointName"`
	ModelInputPayloadSchema map[string]any `json:"ModelInputPayloadSchema,omitempty"`
	ModelOutputJSONPath     string         `json:"ModelOutputJSONPath,omitempty"`
}

// KnowledgeBaseParams configures the optional retriever of a use case.
type KnowledgeBaseParams struct {
	KnowledgeBaseType          KnowledgeBaseType           `json:"KnowledgeBaseType"`
	NumberOfDocs               int                         `json:"NumberOfDocs,omitempty"`
	ScoreThreshold             *float64                    `json:"ScoreThreshold,omitempty"`
	ReturnSourceDocs           bool                        `json:"ReturnSourceDocs,omitempty"`
	KendraKnowledgeBaseParams  *KendraKnowledgeBaseParams  `json:"KendraKnowledgeBaseParams,omitempty"`
	BedrockKnowledgeBaseParams *BedrockKnowledgeBaseParams `json:"BedrockKnowledgeBaseParams,omitempty"`
}

// KendraKnowledgeBaseParams holds Kendra-specific retrieval settings.
type KendraKnowledgeBaseParams struct {
	AttributeFilter               map[string]any `json:"AttributeFilter,omitempty"`
	RoleBasedAccessControlEnabled bool           `json:"RoleBasedAccessControlEnabled,omitempty"`
}

// BedrockKnowledgeBaseParams holds Bedrock KB-specific retrieval settings.
type BedrockKnowledgeBaseParams struct {
	RetrievalFilter    map[string]any `json:"RetrievalFilter,omitempty"`
	OverrideSearchType string         `json:"OverrideSearchType,omitempty"`
}

// ConversationMemoryParams configures conversation history behavior.
type ConversationMemoryParams struct {
	ConversationMemoryType ConversationMemoryType `json:"ConversationMemoryType"`
	ChatHistoryLength      int                    `json:"ChatHistoryLength,omitempty"`
	HumanPrefix            string                 `json:"HumanPrefix,omitempty"`
	AiPrefix               string                 `json:"AiPrefix,omitempty"`
}

// Message is one turn of a stored conversation.
type Message struct {
	Role    string `json:"role" dynamodbav:"role"`
	Content string `json:"content" dynamodbav:"content"`
}

// SourceDocument is a retrieved document surfaced alongside an answer.
// Location is nil when the document's location type is not recognized.
type SourceDocument struct {
	Excerpt       string   `json:"excerpt"`
	Location      *string  `json:"location"`
	Score         *float64 `json:"score,omitempty"`
	DocumentTitle string   `json:"document_title,omitempty"`
	DocumentID    string   `json:"document_id,omitempty"`
}

// ChatResult is the outcome of one generate call.
type ChatResult struct {
	Answer          string           `json:"answer"`
	SourceDocuments []SourceDocument `json:"source_documents,omitempty"`
}

// RequestEvent is the parsed chat request handed to a chat client. The
// conversation id is generated when the caller omits it.
type RequestEvent struct {
	Action           string `json:"action"`
	Question         string `json:"question"`
	ConversationID   string `json:"conversationId"`
	PromptTemplate   string `json:"promptTemplate,omitempty"`
	UserContextToken string `json:"authToken,omitempty"`
}
