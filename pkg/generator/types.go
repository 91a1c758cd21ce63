package generator

const (
	// DefaultImageModel はシーン／エビデンス画像生成に使うモデルです。
	DefaultImageModel = "gemini-3-pro-image-preview"
	// DefaultDetectModel は損傷検出に使うモデルです。
	DefaultDetectModel = "gemini-2.5-flash"

	// SceneAspectRatio はシーン画像のアスペクト比です。
	SceneAspectRatio = "1:1"
	// ImageSize1K は標準的な解像度の設定（1024x1024相当）です。
	ImageSize1K = "1K"

	// DefaultMimeType はレスポンスに MIME タイプが無い場合の既定値です。
	DefaultMimeType = "image/png"

	// PlaceholderConfidence は検出結果に付与する固定の信頼度です。
	// モデルの出力スキーマに信頼度が無いための仮の値で、実測値ではありません。
	PlaceholderConfidence = 0.95
)
