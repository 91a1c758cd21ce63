package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/internal/config"
	"github.com/shouni/go-claim-scene-kit/internal/runner"
	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/generator"
	"github.com/shouni/go-claim-scene-kit/pkg/publisher"
	"github.com/shouni/go-claim-scene-kit/pkg/workflow"
)

// LoadAppContext は請求データを読み込み、AppContext を構築します。
func LoadAppContext(cfg *config.Config) (*AppContext, error) {
	path := cfg.ClaimsPath()
	claims, err := domain.LoadClaims(path)
	if err != nil {
		return nil, fmt.Errorf("請求データの読み込みに失敗しました: %w", err)
	}
	slog.Info("Claims loaded", "path", path, "count", len(claims))

	appCtx := NewAppContext(cfg, claims, nil)
	return &appCtx, nil
}

// BuildConsole は Gemini と接続された Console を構築します。
// client が nil の場合は API キーから genai クライアントを生成します。
func BuildConsole(ctx context.Context, appCtx *AppContext, client generator.ContentGenerator) (*workflow.Console, error) {
	console, err := workflow.New(ctx, workflow.ManagerArgs{
		Config: appCtx.Config.WorkflowConfig(),
		Claims: appCtx.Claims,
		Client: client,
	})
	if err != nil {
		return nil, fmt.Errorf("コンソールの初期化に失敗しました: %w", err)
	}
	return console, nil
}

// BuildDamageDetector は画像ファイル単体の損傷検出に使う DamageDetector を構築します。
func BuildDamageDetector(ctx context.Context, appCtx *AppContext, client generator.ContentGenerator) (*generator.DamageDetector, error) {
	return workflow.NewDetector(ctx, appCtx.Config.WorkflowConfig(), client)
}

// BuildPublisher は成果物の保存を担当する Publisher を構築します。
func BuildPublisher(appCtx *AppContext) *publisher.ClaimPublisher {
	return publisher.NewClaimPublisher(appCtx.Writer)
}

// BuildSceneRunner はシーン表示と損傷検出を担当する Runner を構築します。
func BuildSceneRunner(console *workflow.Console) *runner.SceneRunner {
	return runner.NewSceneRunner(console)
}

// BuildPublisherRunner は成果物の保存を行う Runner を構築します。
func BuildPublisherRunner(appCtx *AppContext) runner.PublisherRunner {
	return runner.NewDefaultPublisherRunner(appCtx.Options, BuildPublisher(appCtx))
}
