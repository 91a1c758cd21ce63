package workflow

import (
	"context"
	"errors"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
)

// ErrClaimNotFound は未登録の請求IDが指定された場合のエラーです。
var ErrClaimNotFound = errors.New("請求が見つかりません")

// SceneGenerator はプロンプトから画像を生成し data URI で返す責務を持ちます。
type SceneGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DamageDetector は画像から損傷箇所を検出する責務を持ちます。
type DamageDetector interface {
	Detect(ctx context.Context, image string) ([]domain.DamageRegion, error)
}

// SceneStatus はシーン画像の状態です。
type SceneStatus string

const (
	SceneIdle       SceneStatus = "idle"
	SceneGenerating SceneStatus = "generating"
	SceneReady      SceneStatus = "ready"
	SceneFailed     SceneStatus = "failed"
)

// DetectionStatus は損傷検出の状態です。
type DetectionStatus string

const (
	DetectionIdle      DetectionStatus = "idle"
	DetectionAnalyzing DetectionStatus = "analyzing"
	DetectionReady     DetectionStatus = "ready"
	DetectionFailed    DetectionStatus = "failed"
)

// View は1件の請求についてコンソールが表示する状態のスナップショットです。
type View struct {
	ClaimID  string
	ViewMode prompts.ViewMode

	Scene      SceneStatus
	Image      string // Scene が ready のときのみ設定されます
	SceneError string

	Detection      DetectionStatus
	Regions        []domain.DamageRegion
	DetectionError string
}

// HasImage は表示可能な画像があるかどうかを返します。
func (v View) HasImage() bool {
	return v.Scene == SceneReady && v.Image != ""
}

// EvidenceView はエビデンスギャラリーの結果です。
type EvidenceView struct {
	ClaimID string
	// Images は成功した画像のみを発行順（close-up, wide, side, eye-level）で保持します。
	Images []string
	// Failures は失敗したバリエーション名と理由です。キャッシュから返した場合は空です。
	Failures  map[string]string
	FromCache bool
}
