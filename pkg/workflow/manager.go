package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/generator"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ManagerArgs は New に渡す引数です。
type ManagerArgs struct {
	Config Config
	Claims domain.ClaimsMap
	// Client が nil の場合、Config.GeminiAPIKey から genai クライアントを生成します。
	Client generator.ContentGenerator
	Caches *Caches
}

// New は、設定と請求データを基に Gemini と接続された Console を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Console, error) {
	if args.Claims == nil {
		return nil, fmt.Errorf("Claims は必須です")
	}

	client, err := resolveClient(ctx, args.Config, args.Client)
	if err != nil {
		return nil, err
	}

	sceneGen, err := generator.NewSceneGenerator(client, args.Config.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("シーン生成クライアントの初期化に失敗しました: %w", err)
	}
	detector, err := NewDetector(ctx, args.Config, client)
	if err != nil {
		return nil, err
	}

	return NewConsole(ConsoleArgs{
		Claims:          args.Claims,
		Caches:          args.Caches,
		Scene:           sceneGen,
		Detector:        detector,
		InitialViewMode: args.Config.InitialViewMode,
		EvidenceLimiter: newEvidenceLimiter(args.Config),
	})
}

// NewDetector は Console を介さずに損傷検出だけを行うクライアントを初期化します。
// client が nil の場合は Config.GeminiAPIKey から genai クライアントを生成します。
func NewDetector(ctx context.Context, cfg Config, client generator.ContentGenerator) (*generator.DamageDetector, error) {
	client, err := resolveClient(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	detector, err := generator.NewDamageDetector(client, cfg.DetectModel)
	if err != nil {
		return nil, fmt.Errorf("損傷検出クライアントの初期化に失敗しました: %w", err)
	}
	return detector, nil
}

func resolveClient(ctx context.Context, cfg Config, client generator.ContentGenerator) (generator.ContentGenerator, error) {
	if client != nil {
		return client, nil
	}
	models, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return models, nil
}

// initializeAIClient は genai クライアントを初期化し、Models サービスを返します。
func initializeAIClient(ctx context.Context, apiKey string) (*genai.Models, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GeminiAPIKey は必須です")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}

// newEvidenceLimiter は間隔が 0 以下なら nil（制限なし）を返します。
func newEvidenceLimiter(cfg Config) *rate.Limiter {
	if cfg.EvidenceInterval <= 0 {
		return nil
	}
	burst := cfg.EvidenceBurst
	if burst <= 0 {
		burst = DefaultEvidenceBurst
	}
	return rate.NewLimiter(rate.Every(cfg.EvidenceInterval), burst)
}
