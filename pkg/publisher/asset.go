package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"slices"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/generator"

	"github.com/shouni/gemini-image-kit/ports"
)

const defaultExtension = ".png"

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, data []byte) error
}

// LocalWriter はローカルファイルシステムに書き込む OutputWriter です。
type LocalWriter struct{}

// Write は親ディレクトリを作成してからファイルを書き込みます。
func (LocalWriter) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output/CLM-2024-001")
}

func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// SaveImage は画像データを MIME タイプに応じた拡張子で保存し、保存先のパスを返します。
func (am *AssetManager) SaveImage(ctx context.Context, baseName string, img *ports.ImageResponse) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("asset_manager: 画像データが空です")
	}
	fullPath, err := ResolveOutputPath(am.baseDir, baseName+extensionFor(img.MimeType))
	if err != nil {
		return "", err
	}
	if err := am.writer.Write(ctx, fullPath, img.Data); err != nil {
		return "", fmt.Errorf("asset_manager: 画像の保存に失敗しました: %w", err)
	}
	return fullPath, nil
}

// SaveDataURI は data URI をデコードして保存します。
func (am *AssetManager) SaveDataURI(ctx context.Context, baseName, dataURI string) (string, error) {
	mimeType, data, err := generator.DecodeDataURI(dataURI)
	if err != nil {
		return "", fmt.Errorf("asset_manager: data URI のデコードに失敗しました: %w", err)
	}
	return am.SaveImage(ctx, baseName, &ports.ImageResponse{Data: data, MimeType: mimeType})
}

// WriteRegions は損傷領域のリストをインデント付き JSON で保存します。
func (am *AssetManager) WriteRegions(ctx context.Context, claimID string, regions []domain.DamageRegion) (string, error) {
	if regions == nil {
		regions = []domain.DamageRegion{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(regions); err != nil {
		return "", fmt.Errorf("損傷領域のエンコードに失敗しました: %w", err)
	}

	fullPath, err := ResolveOutputPath(am.baseDir, claimID+"_regions.json")
	if err != nil {
		return "", err
	}
	if err := am.writer.Write(ctx, fullPath, buf.Bytes()); err != nil {
		return "", fmt.Errorf("asset_manager: 損傷領域の保存に失敗しました: %w", err)
	}
	return fullPath, nil
}

// extensionFor は MIME タイプから拡張子を決定します。判定できない場合は .png です。
func extensionFor(mimeType string) string {
	extensions, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(extensions) == 0 {
		slog.Warn(
			"Could not determine file extension from MIME type, defaulting to .png",
			slog.String("mime_type", mimeType),
		)
		return defaultExtension
	}
	for _, preferred := range []string{".png", ".jpg", ".webp"} {
		if slices.Contains(extensions, preferred) {
			return preferred
		}
	}
	return extensions[0]
}
