package builder

import (
	"github.com/shouni/go-claim-scene-kit/internal/config"
	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/publisher"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（出力先、表示モードなど）。
	Claims  domain.ClaimsMap       // Claimsは、読み込み済みの請求データです。
	Writer  publisher.OutputWriter // Writerは、生成された内容を保存するための出力先です。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, claims domain.ClaimsMap, writer publisher.OutputWriter) AppContext {
	if writer == nil {
		writer = publisher.LocalWriter{}
	}
	return AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Claims:  claims,
		Writer:  writer,
	}
}
