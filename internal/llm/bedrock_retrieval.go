package llm

import (
	"context"
	"strings"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"go.uber.org/zap"
)

// BedrockRetrievalLLM is the retrieval-augmented variant of BedrockLLM: it
// grounds each question in documents fetched from the attached knowledge
// base and, when configured, surfaces them alongside the answer.
type BedrockRetrievalLLM struct {
	BedrockLLM
	knowledgeBase knowledgebase.KnowledgeBase
}

// NewBedrockRetrievalLLM wraps a plain Bedrock model with a knowledge base.
func NewBedrockRetrievalLLM(base *BedrockLLM, kb knowledgebase.KnowledgeBase) *BedrockRetrievalLLM {
	return &BedrockRetrievalLLM{
		BedrockLLM:    *base,
		knowledgeBase: kb,
	}
}

// Generate implements core.ChatModel.
func (m *BedrockRetrievalLLM) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
	docs, err := m.knowledgeBase.Retrieve(ctx, question)
	if err != nil {
		// retrievers degrade internally; this guards custom implementations
		m.logger.Warn("Knowledge base retrieval failed, answering without documents", zap.Error(err))
		docs = nil
	}

	answer, err := m.invoke(ctx, question, documentContext(docs))
	if err != nil {
		return nil, err
	}
	m.saveExchange(ctx, question, answer)

	result := &core.ChatResult{Answer: answer}
	if m.knowledgeBase.ReturnSourceDocs() {
		result.SourceDocuments = docs
	}
	return result, nil
}

// documentContext joins retrieved excerpts into the prompt's context block.
func documentContext(docs []core.SourceDocument) string {
	if len(docs) == 0 {
		return ""
	}
	excerpts := make([]string, 0, len(docs))
	for _, d := range docs {
		excerpts = append(excerpts, d.Excerpt)
	}
	return strings.Join(excerpts, "\n\n")
}
