package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var evidenceFlags struct {
	claimID    string
	regenerate bool
}

// evidenceCmd は、スマートフォン撮影風のエビデンス写真を4枚生成するのだ。
var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "エビデンスギャラリー（4枚）を生成して保存するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := pipeline.ExecuteEvidence(cmd.Context(), loadConfig(), evidenceFlags.claimID, evidenceFlags.regenerate)
		if err != nil {
			return fmt.Errorf("エビデンス生成中にエラーが発生したのだ: %w", err)
		}
		slog.Info("エビデンスの保存が完了したのだ！", "count", len(res.EvidencePaths), "report", res.ReportPath)
		return nil
	},
}

func init() {
	evidenceCmd.Flags().StringVarP(&evidenceFlags.claimID, "claim", "c", "", "対象の請求IDなのだ。")
	evidenceCmd.Flags().BoolVarP(&evidenceFlags.regenerate, "regenerate", "r", false, "キャッシュを使わずに再生成するのだ。")
	_ = evidenceCmd.MarkFlagRequired("claim")
}
