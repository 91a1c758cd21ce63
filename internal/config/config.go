package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
	"github.com/shouni/go-claim-scene-kit/pkg/workflow"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultImageModel       = workflow.DefaultImageModel
	DefaultDetectModel      = workflow.DefaultDetectModel
	DefaultClaimsFile       = "examples/claims.json" // 請求データ（モック）のJSONパス
	DefaultOutputDir        = "output"               // パブリッシャーで使用するデフォルト保存先なのだ
	DefaultViewMode         = string(prompts.DefaultViewMode)
	DefaultEvidenceInterval = workflow.DefaultEvidenceInterval
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	ImageModel       string
	DetectModel      string
	ClaimsFile       string
	EvidenceInterval time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		ImageModel:       envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		DetectModel:      envutil.GetEnv("DETECT_GEMINI_MODEL", DefaultDetectModel),
		ClaimsFile:       envutil.GetEnv("CLAIMS_FILE", DefaultClaimsFile),
		EvidenceInterval: parseDuration(envutil.GetEnv("EVIDENCE_INTERVAL", ""), DefaultEvidenceInterval),
	}
	return cfg
}

// WorkflowConfig はコンソール初期化用の設定に変換するのだ。CLI フラグが指定されていればそちらを優先するのだ。
func (c *Config) WorkflowConfig() workflow.Config {
	wc := workflow.NewConfig(c.GeminiAPIKey)
	wc.ImageModel = firstNonEmpty(c.Options.ImageModel, c.ImageModel, DefaultImageModel)
	wc.DetectModel = firstNonEmpty(c.Options.DetectModel, c.DetectModel, DefaultDetectModel)
	wc.InitialViewMode = prompts.ViewMode(firstNonEmpty(c.Options.ViewMode, DefaultViewMode))
	wc.EvidenceInterval = c.EvidenceInterval
	return wc
}

// ClaimsPath は実際に読み込む請求データのパスなのだ。
func (c *Config) ClaimsPath() string {
	return firstNonEmpty(c.Options.ClaimsFile, c.ClaimsFile, DefaultClaimsFile)
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入出力
	ClaimsFile string // --claims-file
	OutputDir  string // --output-dir

	// AI挙動設定
	ImageModel  string // --image-model: シーン画像生成用のGeminiモデル
	DetectModel string // --detect-model: 損傷検出用のGeminiモデル
	ViewMode    string // --view-mode
}

// parseDuration は "2s" 形式または秒数の整数を受け付けるのだ。解釈できない値は警告して def を使うのだ。
func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("間隔の指定を解釈できないので既定値を使うのだ", "value", v, "default", def)
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
