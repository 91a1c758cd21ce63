package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
)

const placeholder = "placeholder.png"

// ReportInput はレポート1件分の素材です。画像パスはレポートからの相対パスで指定します。
type ReportInput struct {
	Claim         domain.Claim
	ViewMode      string
	ScenePath     string
	Regions       []domain.DamageRegion
	EvidencePaths []string
}

// BuildClaimReport は、請求の概要、シーン画像、損傷領域、エビデンス画像を
// 1つの Markdown 文書にまとめます。
func BuildClaimReport(in ReportInput) string {
	var sb strings.Builder
	c := in.Claim

	// 1. 概要
	sb.WriteString(fmt.Sprintf("# %s\n\n", c.ID))
	sb.WriteString(fmt.Sprintf("- status: %s\n", c.Status))
	sb.WriteString(fmt.Sprintf("- type: %s\n", c.Type))
	sb.WriteString(fmt.Sprintf("- holder: %s\n", c.Holder.Name))
	sb.WriteString(fmt.Sprintf("- vehicle: %s (%s)\n", c.VehicleSummary(), c.CarDetails.PlateNumber))
	sb.WriteString(fmt.Sprintf("- location: %s\n", c.Location))
	sb.WriteString(fmt.Sprintf("- estimate: $%.2f\n\n", c.DamageEstimate))

	// 2. シーン画像
	scene := in.ScenePath
	if scene == "" {
		scene = placeholder
	}
	sb.WriteString("## Scene\n\n")
	if in.ViewMode != "" {
		sb.WriteString(fmt.Sprintf("- view: %s\n\n", in.ViewMode))
	}
	sb.WriteString(fmt.Sprintf("![scene](%s)\n\n", scene))

	// 3. 損傷領域
	sb.WriteString("## Damage\n\n")
	if len(in.Regions) == 0 {
		sb.WriteString("- none detected\n")
	}
	for _, r := range in.Regions {
		sb.WriteString(fmt.Sprintf("- %s: %s [%.3f, %.3f, %.3f, %.3f]\n",
			r.ID, r.Label, r.Box.YMin, r.Box.XMin, r.Box.YMax, r.Box.XMax))
	}
	sb.WriteString("\n")

	// 4. 調査メモ
	if notes := strings.TrimSpace(c.AdjusterNotes); notes != "" {
		sb.WriteString("## Adjuster Notes\n\n")
		sb.WriteString(notes + "\n\n")
	}

	// 5. エビデンス
	if len(in.EvidencePaths) > 0 {
		sb.WriteString("## Evidence\n\n")
		for i, p := range in.EvidencePaths {
			sb.WriteString(fmt.Sprintf("![evidence %d](%s)\n", i+1, p))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
