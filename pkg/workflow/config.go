package workflow

import (
	"time"

	"github.com/shouni/go-claim-scene-kit/pkg/generator"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
)

// デフォルト値の定義
const (
	DefaultImageModel  = generator.DefaultImageModel
	DefaultDetectModel = generator.DefaultDetectModel
	// DefaultEvidenceInterval が 0 の場合、ギャラリーの4リクエストは制限なしで同時に発行されます。
	DefaultEvidenceInterval = 0 * time.Second
	DefaultEvidenceBurst    = 4
)

// Config はコンソールを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	ImageModel   string
	DetectModel  string

	// --- Generation Settings ---
	InitialViewMode  prompts.ViewMode
	EvidenceInterval time.Duration
	EvidenceBurst    int
}

// NewConfig はデフォルト値で初期化された Config に API キーをセットして返します。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = apiKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		ImageModel:       DefaultImageModel,
		DetectModel:      DefaultDetectModel,
		InitialViewMode:  prompts.DefaultViewMode,
		EvidenceInterval: DefaultEvidenceInterval,
		EvidenceBurst:    DefaultEvidenceBurst,
	}
}
