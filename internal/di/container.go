package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/mikey/llm-chat-backend/internal/adapters/usecases"
	"github.com/mikey/llm-chat-backend/internal/adapters/ws"
	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/clients"
	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
	"github.com/mikey/llm-chat-backend/internal/handler"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/logging"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"github.com/mikey/llm-chat-backend/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register AWS SDK configuration
	if err := container.Provide(func(cfg *config.Config) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.GetString("aws.region")))
	}); err != nil {
		return nil, err
	}

	// Register AWS service clients
	if err := container.Provide(func(awsCfg aws.Config) *dynamodb.Client {
		return dynamodb.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *bedrockruntime.Client {
		return bedrockruntime.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *bedrockagentruntime.Client {
		return bedrockagentruntime.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *kendra.Client {
		return kendra.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *sagemakerruntime.Client {
		return sagemakerruntime.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *ssm.Client {
		return ssm.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(awsCfg aws.Config) *secretsmanager.Client {
		return secretsmanager.NewFromConfig(awsCfg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, awsCfg aws.Config) *apigatewaymanagementapi.Client {
		endpoint := cfg.GetString("ws.endpoint")
		return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	}); err != nil {
		return nil, err
	}

	// Register core port adapters
	if err := container.Provide(func(client *ssm.Client, logger *zap.Logger) core.ConfigSource {
		return usecases.NewSSMConfigSource(client, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(client *secretsmanager.Client, logger *zap.Logger) core.SecretSource {
		return usecases.NewSecretsManagerSource(client, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(client *apigatewaymanagementapi.Client, logger *zap.Logger) core.DeliveryChannel {
		return ws.NewDeliveryChannel(client, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, client *dynamodb.Client, logger *zap.Logger) core.ConversationStore {
		ttl := cfg.GetDuration("memory.ttl")
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return memory.NewDynamoDBHistoryStore(client, cfg.GetString("tables.conversation"), ttl, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, client *dynamodb.Client, logger *zap.Logger) defaults.Source {
		return defaults.NewDynamoDBSource(client, cfg.GetString("tables.model_info"), logger)
	}); err != nil {
		return nil, err
	}

	// Register factories and the text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger,
		kendraClient *kendra.Client, agentClient *bedrockagentruntime.Client) *knowledgebase.Factory {
		return knowledgebase.NewFactory(cfg, logger, kendraClient, agentClient)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(memory.NewFactory); err != nil {
		return nil, err
	}

	// Register builder and client dependency bundles
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger,
		kbFactory *knowledgebase.Factory, memFactory *memory.Factory,
		defaultsSource defaults.Source, secretSource core.SecretSource,
		textProcessor *utils.TextProcessor) builder.Deps {
		return builder.Deps{
			Cfg:            cfg,
			Logger:         logger,
			KBFactory:      kbFactory,
			MemoryFactory:  memFactory,
			DefaultsSource: defaultsSource,
			SecretSource:   secretSource,
			TextProcessor:  textProcessor,
		}
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger,
		configSource core.ConfigSource, builderDeps builder.Deps,
		bedrockClient *bedrockruntime.Client, sagemakerClient *sagemakerruntime.Client) clients.Deps {
		return clients.Deps{
			Cfg:             cfg,
			Logger:          logger,
			ConfigSource:    configSource,
			BuilderDeps:     builderDeps,
			BedrockClient:   bedrockClient,
			SageMakerClient: sagemakerClient,
		}
	}); err != nil {
		return nil, err
	}

	// Register the chat client for the deployment's provider
	if err := container.Provide(func(cfg *config.Config, deps clients.Deps) (clients.ChatClient, error) {
		provider := core.LLMProvider(cfg.GetString("llm.provider"))
		return clients.New(provider, deps)
	}); err != nil {
		return nil, err
	}

	// Register the batch handler
	if err := container.Provide(handler.New); err != nil {
		return nil, err
	}

	return container, nil
}
