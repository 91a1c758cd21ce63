package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var detectFlags struct {
	imagePath string
	name      string
}

// detectCmd は、手元の写真（現場写真や提出画像）から損傷箇所を検出するのだ。
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "画像ファイルから損傷箇所を検出して損傷領域JSONを保存するのだ。",
	Long: `指定した画像ファイルを Gemini に渡して損傷箇所のバウンディングボックスを検出するのだ。
検出に失敗しても空の損傷領域として保存するので、結果はログで確認してほしいのだ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := pipeline.ExecuteDetect(cmd.Context(), loadConfig(), detectFlags.imagePath, detectFlags.name)
		if err != nil {
			return fmt.Errorf("損傷検出中にエラーが発生したのだ: %w", err)
		}
		slog.Info("損傷領域の保存が完了したのだ！", "regions", path)
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectFlags.imagePath, "image", "i", "", "検出対象の画像ファイルのパスなのだ。")
	detectCmd.Flags().StringVarP(&detectFlags.name, "name", "n", "", "保存名なのだ。未指定なら画像のファイル名を使うのだ（請求IDを指定すると <ID>_regions.json になるのだ）。")
	_ = detectCmd.MarkFlagRequired("image")
}
