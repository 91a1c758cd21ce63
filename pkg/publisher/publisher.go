package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishInput は保存対象の生成結果です。画像はすべて data URI で渡します。
type PublishInput struct {
	Claim    domain.Claim
	ViewMode string
	Scene    string
	Regions  []domain.DamageRegion
	Evidence []string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ReportPath    string   // 生成された <claimID>_report.md のパス
	ScenePath     string   // シーン画像のパス（画像がない場合は空）
	RegionsPath   string   // 損傷領域 JSON のパス（画像がない場合は空）
	EvidencePaths []string // 保存されたエビデンス画像のパスリスト
}

// ClaimPublisher は請求ごとの成果物の永続化を担います。
type ClaimPublisher struct {
	writer OutputWriter
}

// NewClaimPublisher は ClaimPublisher を生成します。writer が nil ならローカルに書き込みます。
func NewClaimPublisher(writer OutputWriter) *ClaimPublisher {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &ClaimPublisher{writer: writer}
}

// Publish は画像と損傷領域を保存し、それらを参照するレポートを書き出します。
func (p *ClaimPublisher) Publish(ctx context.Context, in PublishInput, opts Options) (PublishResult, error) {
	result := PublishResult{}
	claimID := in.Claim.ID
	if claimID == "" {
		return result, fmt.Errorf("請求IDは必須です")
	}
	assets := NewAssetManager(p.writer, opts.OutputDir)

	// 1. シーン画像と損傷領域
	if in.Scene != "" {
		scenePath, err := assets.SaveDataURI(ctx, claimID+"_scene", in.Scene)
		if err != nil {
			return result, fmt.Errorf("シーン画像の保存に失敗しました: %w", err)
		}
		result.ScenePath = scenePath

		regionsPath, err := assets.WriteRegions(ctx, claimID, in.Regions)
		if err != nil {
			return result, err
		}
		result.RegionsPath = regionsPath
	}

	// 2. エビデンス画像
	for i, uri := range in.Evidence {
		path, err := assets.SaveDataURI(ctx, fmt.Sprintf("%s_evidence_%d", claimID, i+1), uri)
		if err != nil {
			return result, fmt.Errorf("エビデンス画像の保存に失敗しました: %w", err)
		}
		result.EvidencePaths = append(result.EvidencePaths, path)
	}

	// 3. レポート
	reportPath, err := ResolveOutputPath(opts.OutputDir, claimID+"_report.md")
	if err != nil {
		return result, err
	}
	report := ReportInput{
		Claim:    in.Claim,
		ViewMode: in.ViewMode,
		Regions:  in.Regions,
	}
	if result.ScenePath != "" {
		report.ScenePath = ResolveRelativePath(opts.OutputDir, result.ScenePath)
	}
	for _, ep := range result.EvidencePaths {
		report.EvidencePaths = append(report.EvidencePaths, ResolveRelativePath(opts.OutputDir, ep))
	}
	if err := p.writer.Write(ctx, reportPath, []byte(BuildClaimReport(report))); err != nil {
		return result, fmt.Errorf("レポートの書き込みに失敗しました: %w", err)
	}
	result.ReportPath = reportPath

	slog.Info("Claim artifacts published",
		"claim_id", claimID,
		"report", reportPath,
		"evidence", len(result.EvidencePaths),
	)
	return result, nil
}
