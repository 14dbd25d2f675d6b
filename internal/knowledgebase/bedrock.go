package knowledgebase

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// BedrockAgentAPI is the subset of the Bedrock agent-runtime client the
// knowledge base uses
type BedrockAgentAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// BedrockKnowledgeBase retrieves chunks from a Bedrock knowledge base
type BedrockKnowledgeBase struct {
	client           BedrockAgentAPI
	knowledgeBaseID  string
	numberOfDocs     int32
	scoreThreshold   *float64
	returnSourceDocs bool
	retrievalFilter  map[string]any
	searchType       string
	logger           *zap.Logger
}

// NewBedrockKnowledgeBase creates a Bedrock-KB-backed knowledge base. The
// knowledge-base id comes from the deployment configuration; its absence
// is fatal.
func NewBedrockKnowledgeBase(client BedrockAgentAPI, knowledgeBaseID string, kbParams *core.KnowledgeBaseParams, logger *zap.Logger) (*BedrockKnowledgeBase, error) {
	if knowledgeBaseID == "" {
		return nil, core.NewConfigurationError("Bedrock knowledge base id is not configured for this deployment")
	}

	numberOfDocs := kbParams.NumberOfDocs
	if numberOfDocs <= 0 {
		numberOfDocs = defaultNumberOfDocs
	}

	kb := &BedrockKnowledgeBase{
		client:           client,
		knowledgeBaseID:  knowledgeBaseID,
		numberOfDocs:     int32(numberOfDocs),
		scoreThreshold:   kbParams.ScoreThreshold,
		returnSourceDocs: kbParams.ReturnSourceDocs,
		logger:           logger,
	}
	if bp := kbParams.BedrockKnowledgeBaseParams; bp != nil {
		kb.retrievalFilter = bp.RetrievalFilter
		kb.searchType = bp.OverrideSearchType
	}
	return kb, nil
}

// ReturnSourceDocs implements KnowledgeBase
func (kb *BedrockKnowledgeBase) ReturnSourceDocs() bool {
	return kb.returnSourceDocs
}

// Retrieve queries the knowledge base. Client errors degrade to an empty
// document list so that generation can still proceed ungrounded.
func (kb *BedrockKnowledgeBase) Retrieve(ctx context.Context, query string) ([]core.SourceDocument, error) {
	vectorCfg := &types.KnowledgeBaseVectorSearchConfiguration{
		NumberOfResults: aws.Int32(kb.numberOfDocs),
	}
	switch kb.searchType {
	case "":
		// knowledge base default
	case string(types.SearchTypeHybrid):
		vectorCfg.OverrideSearchType = types.SearchTypeHybrid
	case string(types.SearchTypeSemantic):
		vectorCfg.OverrideSearchType = types.SearchTypeSemantic
	default:
		kb.logger.Warn("Unknown search type override ignored", zap.String("search_type", kb.searchType))
	}
	if kb.retrievalFilter != nil {
		filter, err := buildRetrievalFilter(kb.retrievalFilter)
		if err != nil {
			kb.logger.Warn("Invalid Bedrock KB retrieval filter, querying without it", zap.Error(err))
		} else {
			vectorCfg.Filter = filter
		}
	}

	out, err := kb.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(kb.knowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: vectorCfg,
		},
	})
	if err != nil {
		kb.logger.Warn("Bedrock KB retrieve failed, continuing without documents",
			zap.String("knowledge_base_id", kb.knowledgeBaseID),
			zap.Error(err))
		return []core.SourceDocument{}, nil
	}

	results := make([]types.KnowledgeBaseRetrievalResult, 0, len(out.RetrievalResults))
	for _, r := range out.RetrievalResults {
		if kb.scoreThreshold != nil && (r.Score == nil || *r.Score < *kb.scoreThreshold) {
			continue
		}
		results = append(results, r)
	}
	return SourceDocsFormatter(results, kb.logger), nil
}

// SourceDocsFormatter converts Bedrock KB retrieval results into source
// documents. The location URI extraction depends on the location type;
// unknown types are logged and leave the location unset.
func SourceDocsFormatter(results []types.KnowledgeBaseRetrievalResult, logger *zap.Logger) []core.SourceDocument {
	docs := make([]core.SourceDocument, 0, len(results))
	for _, r := range results {
		doc := core.SourceDocument{
			Score: r.Score,
		}
		if r.Content != nil {
			doc.Excerpt = aws.ToString(r.Content.Text)
		}
		doc.Location = resultLocation(r.Location, logger)
		docs = append(docs, doc)
	}
	return docs
}

func resultLocation(loc *types.RetrievalResultLocation, logger *zap.Logger) *string {
	if loc == nil {
		return nil
	}
	switch loc.Type {
	case types.RetrievalResultLocationTypeS3:
		if loc.S3Location != nil {
			return loc.S3Location.Uri
		}
	case types.RetrievalResultLocationTypeWeb:
		if loc.WebLocation != nil {
			return loc.WebLocation.Url
		}
	case types.RetrievalResultLocationTypeConfluence:
		if loc.ConfluenceLocation != nil {
			return loc.ConfluenceLocation.Url
		}
	case types.RetrievalResultLocationTypeSalesforce:
		if loc.SalesforceLocation != nil {
			return loc.SalesforceLocation.Url
		}
	case types.RetrievalResultLocationTypeSharepoint:
		if loc.SharePointLocation != nil {
			return loc.SharePointLocation.Url
		}
	default:
		logger.Warn("Unknown source document location type", zap.String("type", string(loc.Type)))
	}
	return nil
}

// buildRetrievalFilter translates the JSON retrieval filter stored in the
// use-case configuration into the typed union. Supported operators:
// andAll/orAll (lists) and equals/notEquals with a key and value.
func buildRetrievalFilter(raw map[string]any) (types.RetrievalFilter, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("retrieval filter must have exactly one operator, got %d", len(raw))
	}
	for op, value := range raw {
		switch op {
		case "andAll", "orAll":
			list, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s must be a list", op)
			}
			sub := make([]types.RetrievalFilter, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s entries must be objects", op)
				}
				f, err := buildRetrievalFilter(m)
				if err != nil {
					return nil, err
				}
				sub = append(sub, f)
			}
			if op == "andAll" {
				return &types.RetrievalFilterMemberAndAll{Value: sub}, nil
			}
			return &types.RetrievalFilterMemberOrAll{Value: sub}, nil
		case "equals", "notEquals":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s must be an object", op)
			}
			key, _ := m["key"].(string)
			if key == "" {
				return nil, fmt.Errorf("%s condition is missing key", op)
			}
			attr := types.FilterAttribute{
				Key:   aws.String(key),
				Value: document.NewLazyDocument(m["value"]),
			}
			if op == "equals" {
				return &types.RetrievalFilterMemberEquals{Value: attr}, nil
			}
			return &types.RetrievalFilterMemberNotEquals{Value: attr}, nil
		default:
			return nil, fmt.Errorf("unsupported retrieval filter operator %q", op)
		}
	}
	return nil, nil
}
