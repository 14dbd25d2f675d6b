package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/mikey/llm-chat-backend/internal/di"
	"github.com/mikey/llm-chat-backend/internal/handler"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the Lambda runtime with all dependencies injected
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run hands the batch handler to the Lambda runtime
func run(logger *zap.Logger, h *handler.Handler) error {
	defer logger.Sync()

	logger.Info("Starting chat handler")
	lambda.Start(h.Handle)
	return nil
}
