package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/gemini-image-kit/ports"
	"google.golang.org/genai"
)

// SceneGenerator はテキストプロンプトから事故現場の画像を生成します。
type SceneGenerator struct {
	client      ContentGenerator
	model       string
	aspectRatio string
	imageSize   string
}

// NewSceneGenerator は SceneGenerator を初期化します。model が空なら DefaultImageModel を使います。
func NewSceneGenerator(client ContentGenerator, model string) (*SceneGenerator, error) {
	if client == nil {
		return nil, fmt.Errorf("ContentGenerator は必須です")
	}
	if model == "" {
		model = DefaultImageModel
	}
	return &SceneGenerator{
		client:      client,
		model:       model,
		aspectRatio: SceneAspectRatio,
		imageSize:   ImageSize1K,
	}, nil
}

// Model は使用する画像生成モデル名を返します。
func (g *SceneGenerator) Model() string {
	return g.model
}

// Generate は画像を1枚生成し、data URI として返します。
// 画像が含まれない場合は ErrNoImage、通信失敗時はラップしたエラーを返します。
func (g *SceneGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	img, err := g.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	return FormatDataURI(img.MimeType, img.Data), nil
}

// GenerateImage は画像を1枚生成し、デコード済みのバイト列として返します。
func (g *SceneGenerator) GenerateImage(ctx context.Context, prompt string) (*ports.ImageResponse, error) {
	return g.GenerateFromRequest(ctx, ports.GenerationOptions{Prompt: prompt})
}

// GenerateFromRequest は GenerationOptions の指定で画像を1枚生成します。
// Model / AspectRatio / ImageSize が空ならジェネレーターの既定値（1:1, 1K）を使います。
func (g *SceneGenerator) GenerateFromRequest(ctx context.Context, opts ports.GenerationOptions) (*ports.ImageResponse, error) {
	prompt := opts.Prompt
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	model := firstNonEmpty(opts.Model, g.model)
	aspectRatio := firstNonEmpty(opts.AspectRatio, g.aspectRatio)
	imageSize := firstNonEmpty(opts.ImageSize, g.imageSize)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
			ImageSize:   imageSize,
		},
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.Seed != nil {
		seed := int32(*opts.Seed)
		config.Seed = &seed
	}

	resp, err := g.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("画像生成リクエストに失敗しました (model: %s): %w", model, err)
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return nil, ErrNoImage
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &ports.ImageResponse{
		Data:     blob.Data,
		MimeType: mimeType,
		UsedSeed: ports.DereferenceSeed(opts.Seed),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstInlineData は全候補を順に走査し、最初に見つかったインラインデータを返します。
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}
