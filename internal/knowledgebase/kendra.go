package knowledgebase

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/kendra/types"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// KendraAPI is the subset of the Kendra client the knowledge base uses
type KendraAPI interface {
	Retrieve(ctx context.Context, params *kendra.RetrieveInput, optFns ...func(*kendra.Options)) (*kendra.RetrieveOutput, error)
}

const defaultNumberOfDocs = 2

// KendraKnowledgeBase retrieves passages from an Amazon Kendra index
type KendraKnowledgeBase struct {
	client           KendraAPI
	indexID          string
	numberOfDocs     int32
	scoreThreshold   *float64
	returnSourceDocs bool
	attributeFilter  map[string]any
	rbacEnabled      bool
	userContextToken string
	logger           *zap.Logger
}

// NewKendraKnowledgeBase creates a Kendra-backed knowledge base. The index
// id comes from the deployment configuration; its absence is fatal.
func NewKendraKnowledgeBase(client KendraAPI, indexID string, kbParams *core.KnowledgeBaseParams, userContextToken string, logger *zap.Logger) (*KendraKnowledgeBase, error) {
	if indexID == "" {
		return nil, core.NewConfigurationError("Kendra index id is not configured for this deployment")
	}

	numberOfDocs := kbParams.NumberOfDocs
	if numberOfDocs <= 0 {
		numberOfDocs = defaultNumberOfDocs
	}

	kb := &KendraKnowledgeBase{
		client:           client,
		indexID:          indexID,
		numberOfDocs:     int32(numberOfDocs),
		scoreThreshold:   kbParams.ScoreThreshold,
		returnSourceDocs: kbParams.ReturnSourceDocs,
		logger:           logger,
	}
	if kp := kbParams.KendraKnowledgeBaseParams; kp != nil {
		kb.attributeFilter = kp.AttributeFilter
		kb.rbacEnabled = kp.RoleBasedAccessControlEnabled
		kb.userContextToken = userContextToken
	}
	return kb, nil
}

// ReturnSourceDocs implements KnowledgeBase
func (kb *KendraKnowledgeBase) ReturnSourceDocs() bool {
	return kb.returnSourceDocs
}

// Retrieve queries the index. Query failures degrade to an empty document
// list so that generation can still proceed ungrounded.
func (kb *KendraKnowledgeBase) Retrieve(ctx context.Context, query string) ([]core.SourceDocument, error) {
	in := &kendra.RetrieveInput{
		IndexId:   aws.String(kb.indexID),
		QueryText: aws.String(query),
		PageSize:  aws.Int32(kb.numberOfDocs),
	}
	if kb.attributeFilter != nil {
		filter, err := buildAttributeFilter(kb.attributeFilter)
		if err != nil {
			kb.logger.Warn("Invalid Kendra attribute filter, querying without it", zap.Error(err))
		} else {
			in.AttributeFilter = filter
		}
	}
	// The per-request user context is attached at query time so that
	// row-level access control sees the caller's identity
	if kb.rbacEnabled && kb.userContextToken != "" {
		in.UserContext = &types.UserContext{Token: aws.String(kb.userContextToken)}
	}

	out, err := kb.client.Retrieve(ctx, in)
	if err != nil {
		kb.logger.Warn("Kendra retrieve failed, continuing without documents",
			zap.String("index_id", kb.indexID),
			zap.Error(err))
		return []core.SourceDocument{}, nil
	}

	docs := make([]core.SourceDocument, 0, len(out.ResultItems))
	for _, item := range out.ResultItems {
		score := confidenceScore(item.ScoreAttributes)
		if kb.scoreThreshold != nil && score < *kb.scoreThreshold {
			continue
		}
		doc := core.SourceDocument{
			Excerpt:       aws.ToString(item.Content),
			DocumentTitle: aws.ToString(item.DocumentTitle),
			DocumentID:    aws.ToString(item.DocumentId),
			Score:         aws.Float64(score),
		}
		if item.DocumentURI != nil {
			doc.Location = item.DocumentURI
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// confidenceScore maps Kendra's confidence buckets onto [0, 1] so a single
// numeric threshold works across both knowledge-base types
func confidenceScore(attrs *types.ScoreAttributes) float64 {
	if attrs == nil {
		return 0
	}
	switch attrs.ScoreConfidence {
	case types.ScoreConfidenceVeryHigh:
		return 1.0
	case types.ScoreConfidenceHigh:
		return 0.75
	case types.ScoreConfidenceMedium:
		return 0.5
	case types.ScoreConfidenceLow:
		return 0.25
	default:
		return 0
	}
}

// buildAttributeFilter translates the JSON attribute filter stored in the
// use-case configuration into the typed Kendra filter. Supported shapes:
// AndAllFilters/OrAllFilters (lists), NotFilter (nested), and EqualsTo/
// ContainsAll/ContainsAny with a Key and a String/StringList/Long value.
func buildAttributeFilter(raw map[string]any) (*types.AttributeFilter, error) {
	filter := &types.AttributeFilter{}
	for key, value := range raw {
		switch key {
		case "AndAllFilters", "OrAllFilters":
			list, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s must be a list", key)
			}
			sub := make([]types.AttributeFilter, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s entries must be objects", key)
				}
				f, err := buildAttributeFilter(m)
				if err != nil {
					return nil, err
				}
				sub = append(sub, *f)
			}
			if key == "AndAllFilters" {
				filter.AndAllFilters = sub
			} else {
				filter.OrAllFilters = sub
			}
		case "NotFilter":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("NotFilter must be an object")
			}
			f, err := buildAttributeFilter(m)
			if err != nil {
				return nil, err
			}
			filter.NotFilter = f
		case "EqualsTo", "ContainsAll", "ContainsAny":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s must be an object", key)
			}
			attr, err := buildDocumentAttribute(m)
			if err != nil {
				return nil, err
			}
			switch key {
			case "EqualsTo":
				filter.EqualsTo = attr
			case "ContainsAll":
				filter.ContainsAll = attr
			case "ContainsAny":
				filter.ContainsAny = attr
			}
		default:
			return nil, fmt.Errorf("unsupported attribute filter operator %q", key)
		}
	}
	return filter, nil
}

func buildDocumentAttribute(raw map[string]any) (*types.DocumentAttribute, error) {
	key, _ := raw["Key"].(string)
	if key == "" {
		return nil, fmt.Errorf("attribute filter condition is missing Key")
	}
	valueRaw, ok := raw["Value"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("attribute filter condition %q is missing Value", key)
	}

	value := &types.DocumentAttributeValue{}
	if s, ok := valueRaw["StringValue"].(string); ok {
		value.StringValue = aws.String(s)
	} else if list, ok := valueRaw["StringListValue"].([]any); ok {
		strs := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("StringListValue for %q must contain strings", key)
			}
			strs = append(strs, s)
		}
		value.StringListValue = strs
	} else if n, ok := valueRaw["LongValue"].(float64); ok {
		value.LongValue = aws.Int64(int64(n))
	} else {
		return nil, fmt.Errorf("attribute filter condition %q has no supported value type", key)
	}

	return &types.DocumentAttribute{
		Key:   aws.String(key),
		Value: value,
	}, nil
}
