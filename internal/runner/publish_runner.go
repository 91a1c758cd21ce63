package runner

import (
	"context"

	"github.com/shouni/go-claim-scene-kit/internal/config"
	"github.com/shouni/go-claim-scene-kit/pkg/publisher"
)

// PublisherRunner はパブリッシュ処理のインターフェースです。
type PublisherRunner interface {
	Run(ctx context.Context, in publisher.PublishInput) (publisher.PublishResult, error)
}

// DefaultPublisherRunner は pkg/publisher を利用した標準実装です。
type DefaultPublisherRunner struct {
	options   config.GenerateOptions
	publisher *publisher.ClaimPublisher
}

func NewDefaultPublisherRunner(options config.GenerateOptions, pub *publisher.ClaimPublisher) *DefaultPublisherRunner {
	return &DefaultPublisherRunner{
		options:   options,
		publisher: pub,
	}
}

func (pr *DefaultPublisherRunner) Run(ctx context.Context, in publisher.PublishInput) (publisher.PublishResult, error) {
	// internal/config の値を pkg/publisher 用の構造体に詰め替えます。
	outputDir := pr.options.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}
	return pr.publisher.Publish(ctx, in, publisher.Options{OutputDir: outputDir})
}
