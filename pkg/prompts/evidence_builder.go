package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
)

const evidenceBaseTemplate = `Amateur smartphone photo of a {{.CarDetails.Year}} {{.CarDetails.Color}} {{.CarDetails.Make}} {{.CarDetails.Model}} at {{.Location}}. The car has {{.Description}}. Realistic lighting, raw, unedited, user uploaded photo style.`

// EvidenceVariant はギャラリー用画像1枚分の撮影バリエーションです。
type EvidenceVariant struct {
	Name   string
	Suffix string
}

// EvidenceVariants は発行順に並んだ4種類のバリエーションです。
var EvidenceVariants = []EvidenceVariant{
	{Name: "close-up", Suffix: "Close up view of the specific damage area."},
	{Name: "wide", Suffix: "Wide angle shot showing the whole car and the environment."},
	{Name: "side", Suffix: "Side angle view showing the impact."},
	{Name: "eye-level", Suffix: "View from a standing person's perspective looking down at the damage."},
}

var evidenceTmpl = template.Must(template.New("evidence").Parse(evidenceBaseTemplate))

// BuildEvidencePrompts はギャラリー生成用のプロンプトを EvidenceVariants の順で返します。
func BuildEvidencePrompts(claim domain.Claim) ([]string, error) {
	var sb strings.Builder
	if err := evidenceTmpl.Execute(&sb, claim); err != nil {
		return nil, fmt.Errorf("エビデンスプロンプトテンプレートの実行に失敗しました: %w", err)
	}
	base := sb.String()

	out := make([]string, 0, len(EvidenceVariants))
	for _, v := range EvidenceVariants {
		out = append(out, base+" "+v.Suffix)
	}
	return out, nil
}
