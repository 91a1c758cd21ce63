package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"

	"google.golang.org/genai"
)

const detectInstruction = "Analyze this image of a vehicle. Identify distinct areas of damage (e.g., 'Shattered Taillight', 'Dented Bumper', 'Scratched Door'). For each area, return a bounding box and a label."

// damageSchema はモデルに要求する出力形式です（label / description / box_2d の配列）。
var damageSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"box_2d": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeNumber},
				Description: "Bounding box coordinates [ymin, xmin, ymax, xmax] normalized to 0-1.",
			},
		},
	},
}

// rawRegion はモデルが返す1要素分の JSON です。
type rawRegion struct {
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Box2D       []float64 `json:"box_2d"`
}

// DamageDetector は画像から損傷箇所のバウンディングボックスを検出します。
type DamageDetector struct {
	client ContentGenerator
	model  string
}

// NewDamageDetector は DamageDetector を初期化します。model が空なら DefaultDetectModel を使います。
func NewDamageDetector(client ContentGenerator, model string) (*DamageDetector, error) {
	if client == nil {
		return nil, fmt.Errorf("ContentGenerator は必須です")
	}
	if model == "" {
		model = DefaultDetectModel
	}
	return &DamageDetector{client: client, model: model}, nil
}

// Model は使用する検出モデル名を返します。
func (d *DamageDetector) Model() string {
	return d.model
}

// Detect は data URI または生の base64 文字列の画像から損傷箇所を検出します。
// 失敗時も戻り値のスライスは nil ではなく空になります。
func (d *DamageDetector) Detect(ctx context.Context, image string) ([]domain.DamageRegion, error) {
	payload, mimeType := StripImagePrefix(image)
	if payload == "" {
		return []domain.DamageRegion{}, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return []domain.DamageRegion{}, fmt.Errorf("画像の base64 デコードに失敗しました: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(detectInstruction),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   damageSchema,
	}

	resp, err := d.client.GenerateContent(ctx, d.model, contents, config)
	if err != nil {
		return []domain.DamageRegion{}, fmt.Errorf("損傷検出リクエストに失敗しました (model: %s): %w", d.model, err)
	}

	return ParseRegions(responseText(resp))
}

// DetectRegions は Detect のエラーをログに記録し、空リストに畳み込みます。
func (d *DamageDetector) DetectRegions(ctx context.Context, image string) []domain.DamageRegion {
	regions, err := d.Detect(ctx, image)
	if err != nil {
		slog.WarnContext(ctx, "Damage detection failed", "model", d.model, "error", err)
		return []domain.DamageRegion{}
	}
	return regions
}

// ParseRegions はモデルの JSON テキストを DamageRegion のリストに変換します。
// 空文字列は空配列として扱います。要素の順序はレスポンスの順序を保ちます。
func ParseRegions(text string) ([]domain.DamageRegion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "[]"
	}

	var raws []rawRegion
	if err := json.Unmarshal([]byte(text), &raws); err != nil {
		return []domain.DamageRegion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raws == nil && text != "[]" {
		// "null" は配列ではありません。
		return []domain.DamageRegion{}, fmt.Errorf("%w: 配列ではありません", ErrMalformedResponse)
	}

	regions := make([]domain.DamageRegion, 0, len(raws))
	for i, r := range raws {
		if len(r.Box2D) != 4 {
			return []domain.DamageRegion{}, fmt.Errorf("%w: 要素 %d の box_2d が4要素ではありません (%d)", ErrMalformedResponse, i, len(r.Box2D))
		}
		regions = append(regions, domain.DamageRegion{
			ID:    fmt.Sprintf("dmg-%d", i),
			Label: r.Label,
			Box: domain.BoundingBox{
				YMin: r.Box2D[0],
				XMin: r.Box2D[1],
				YMax: r.Box2D[2],
				XMax: r.Box2D[3],
			},
			Confidence:  PlaceholderConfidence,
			Description: r.Description,
		})
	}
	return regions, nil
}

// responseText は最初の候補のテキストパートを連結して返します（思考パートは除外）。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
