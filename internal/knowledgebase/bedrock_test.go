package knowledgebase

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
)

func newTestConfig(t *testing.T, vals map[string]string) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for k, val := range vals {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

type fakeAgentClient struct {
	out *bedrockagentruntime.RetrieveOutput
	err error
	in  *bedrockagentruntime.RetrieveInput
}

func (c *fakeAgentClient) Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	c.in = params
	return c.out, c.err
}

func retrievalResult(text string, score float64, loc *types.RetrievalResultLocation) types.KnowledgeBaseRetrievalResult {
	return types.KnowledgeBaseRetrievalResult{
		Content:  &types.RetrievalResultContent{Text: aws.String(text)},
		Score:    aws.Float64(score),
		Location: loc,
	}
}

func TestSourceDocsFormatter(t *testing.T) {
	logger := zap.NewNop()

	t.Run("s3 location", func(t *testing.T) {
		docs := SourceDocsFormatter([]types.KnowledgeBaseRetrievalResult{
			retrievalResult("excerpt", 0.9, &types.RetrievalResultLocation{
				Type:       types.RetrievalResultLocationTypeS3,
				S3Location: &types.RetrievalResultS3Location{Uri: aws.String("s3://bucket/key")},
			}),
		}, logger)

		require.Len(t, docs, 1)
		assert.Equal(t, "excerpt", docs[0].Excerpt)
		require.NotNil(t, docs[0].Location)
		assert.Equal(t, "s3://bucket/key", *docs[0].Location)
		require.NotNil(t, docs[0].Score)
		assert.Equal(t, 0.9, *docs[0].Score)
	})

	t.Run("web location", func(t *testing.T) {
		docs := SourceDocsFormatter([]types.KnowledgeBaseRetrievalResult{
			retrievalResult("excerpt", 0.5, &types.RetrievalResultLocation{
				Type:        types.RetrievalResultLocationTypeWeb,
				WebLocation: &types.RetrievalResultWebLocation{Url: aws.String("https://example.com/doc")},
			}),
		}, logger)

		require.Len(t, docs, 1)
		require.NotNil(t, docs[0].Location)
		assert.Equal(t, "https://example.com/doc", *docs[0].Location)
	})

	t.Run("unknown location type leaves location unset", func(t *testing.T) {
		docs := SourceDocsFormatter([]types.KnowledgeBaseRetrievalResult{
			retrievalResult("excerpt", 0.5, &types.RetrievalResultLocation{
				Type: types.RetrievalResultLocationType("FTP"),
			}),
		}, logger)

		require.Len(t, docs, 1)
		assert.Nil(t, docs[0].Location)
		assert.Equal(t, "excerpt", docs[0].Excerpt)
	})

	t.Run("nil location", func(t *testing.T) {
		docs := SourceDocsFormatter([]types.KnowledgeBaseRetrievalResult{
			retrievalResult("excerpt", 0.5, nil),
		}, logger)

		require.Len(t, docs, 1)
		assert.Nil(t, docs[0].Location)
	})
}

func TestBedrockKnowledgeBaseRetrieve(t *testing.T) {
	logger := zap.NewNop()

	t.Run("score threshold filters results", func(t *testing.T) {
		client := &fakeAgentClient{out: &bedrockagentruntime.RetrieveOutput{
			RetrievalResults: []types.KnowledgeBaseRetrievalResult{
				retrievalResult("keep", 0.8, nil),
				retrievalResult("drop", 0.2, nil),
			},
		}}
		threshold := 0.5
		kb, err := NewBedrockKnowledgeBase(client, "kb-1", &core.KnowledgeBaseParams{
			NumberOfDocs:   4,
			ScoreThreshold: &threshold,
		}, logger)
		require.NoError(t, err)

		docs, err := kb.Retrieve(context.Background(), "question")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "keep", docs[0].Excerpt)
		assert.Equal(t, int32(4), *client.in.RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults)
	})

	t.Run("retrieve failure degrades to no documents", func(t *testing.T) {
		client := &fakeAgentClient{err: errors.New("throttled")}
		kb, err := NewBedrockKnowledgeBase(client, "kb-1", &core.KnowledgeBaseParams{}, logger)
		require.NoError(t, err)

		docs, err := kb.Retrieve(context.Background(), "question")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("missing knowledge base id is a configuration error", func(t *testing.T) {
		_, err := NewBedrockKnowledgeBase(&fakeAgentClient{}, "", &core.KnowledgeBaseParams{}, logger)
		require.Error(t, err)

		var cerr *core.ConfigurationError
		assert.True(t, errors.As(err, &cerr))
	})
}

func TestGetKnowledgeBase(t *testing.T) {
	logger := zap.NewNop()

	t.Run("missing params collects an error", func(t *testing.T) {
		f := NewFactory(newTestConfig(t, nil), logger, nil, nil)
		var errs []string
		kb, err := f.GetKnowledgeBase(nil, "", &errs)
		require.NoError(t, err)
		assert.Nil(t, kb)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "KnowledgeBaseParams")
	})

	t.Run("unsupported type collects an error", func(t *testing.T) {
		f := NewFactory(newTestConfig(t, nil), logger, nil, nil)
		var errs []string
		kb, err := f.GetKnowledgeBase(&core.KnowledgeBaseParams{KnowledgeBaseType: "OpenSearch"}, "", &errs)
		require.NoError(t, err)
		assert.Nil(t, kb)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "Unsupported knowledge base type: OpenSearch")
	})

	t.Run("bedrock type builds a bedrock knowledge base", func(t *testing.T) {
		f := NewFactory(newTestConfig(t, map[string]string{"bedrock_kb.id": "kb-1"}), logger, nil, &fakeAgentClient{})
		var errs []string
		kb, err := f.GetKnowledgeBase(&core.KnowledgeBaseParams{KnowledgeBaseType: core.KnowledgeBaseBedrock}, "", &errs)
		require.NoError(t, err)
		require.Empty(t, errs)
		assert.IsType(t, &BedrockKnowledgeBase{}, kb)
	})
}
