// Package knowledgebase provides the retrievers that ground RAG chat:
// an Amazon Kendra index and a Bedrock knowledge base. Construction
// problems caused by the use-case configuration are collected into the
// caller's error list; a missing index or knowledge-base id means the
// deployment itself is broken and propagates as an error instead.
package knowledgebase

import (
	"fmt"

	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// KnowledgeBase is a configured retriever plus its presentation settings.
type KnowledgeBase interface {
	core.Retriever
	// ReturnSourceDocs reports whether retrieved documents should be
	// included in the response.
	ReturnSourceDocs() bool
}

// Factory constructs knowledge bases from use-case configuration.
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	kendraClient  KendraAPI
	bedrockClient BedrockAgentAPI
}

// NewFactory creates a new knowledge-base factory.
func NewFactory(cfg *config.Config, logger *zap.Logger, kendraClient KendraAPI, bedrockClient BedrockAgentAPI) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		kendraClient:  kendraClient,
		bedrockClient: bedrockClient,
	}
}

// GetKnowledgeBase constructs the knowledge base described by kbParams.
// User-level configuration problems are appended to errs and yield a nil
// knowledge base; a missing index/knowledge-base id in the deployment
// configuration is returned as an error.
func (f *Factory) GetKnowledgeBase(kbParams *core.KnowledgeBaseParams, userContextToken string, errs *[]string) (KnowledgeBase, error) {
	if kbParams == nil {
		*errs = append(*errs, "Missing required field KnowledgeBaseParams in the use case configuration")
		return nil, nil
	}
	if kbParams.KnowledgeBaseType == "" {
		*errs = append(*errs, "Missing required field KnowledgeBaseType in the use case configuration")
		return nil, nil
	}

	switch kbParams.KnowledgeBaseType {
	case core.KnowledgeBaseKendra:
		kb, err := NewKendraKnowledgeBase(f.kendraClient, f.cfg.GetString("kendra.index_id"), kbParams, userContextToken, f.logger)
		if err != nil {
			return nil, err
		}
		return kb, nil
	case core.KnowledgeBaseBedrock:
		kb, err := NewBedrockKnowledgeBase(f.bedrockClient, f.cfg.GetString("bedrock_kb.id"), kbParams, f.logger)
		if err != nil {
			return nil, err
		}
		return kb, nil
	default:
		*errs = append(*errs, fmt.Sprintf(
			"Unsupported knowledge base type: %s. Supported types: %v",
			kbParams.KnowledgeBaseType, core.SupportedKnowledgeBaseTypes))
		return nil, nil
	}
}
