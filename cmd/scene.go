package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/internal/pipeline"
	"github.com/shouni/go-claim-scene-kit/internal/runner"
	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"

	"github.com/spf13/cobra"
)

var sceneFlags struct {
	claimID    string
	notes      string
	fnol       string
	status     string
	regenerate bool
	evidence   bool
}

// sceneCmd は、請求の事故現場シーンを表示（生成またはキャッシュ）し、損傷検出まで行うのだ。
var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "事故現場のシーン画像を生成して損傷箇所を検出するのだ。",
	Long: `請求データから事故現場のシーン画像を生成し、画像内の損傷箇所を検出するのだ。
--notes や --fnol で調査メモや受付記録を書き換えてから生成できるのだよ。
結果はシーン画像・損傷領域JSON・Markdownレポートとして保存されるのだ。`,
	RunE: sceneCommand,
}

func init() {
	f := sceneCmd.Flags()
	f.StringVarP(&sceneFlags.claimID, "claim", "c", "", "対象の請求IDなのだ。")
	f.StringVar(&sceneFlags.notes, "notes", "", "調査メモを上書きするのだ。")
	f.StringVar(&sceneFlags.fnol, "fnol", "", "FNOL（事故受付）記録を上書きするのだ。")
	f.StringVar(&sceneFlags.status, "status", "", "審査ステータスを変更するのだ（In Review / Approved / Pending Info / Rejected）。")
	f.BoolVarP(&sceneFlags.regenerate, "regenerate", "r", false, "キャッシュを使わずに再生成するのだ。")
	f.BoolVarP(&sceneFlags.evidence, "evidence", "e", false, "エビデンスギャラリーも生成するのだ。")
	_ = sceneCmd.MarkFlagRequired("claim")
}

// sceneCommand は、scene サブコマンドの実行ロジック本体なのだ。
func sceneCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	req := runner.SceneRequest{
		ClaimID:    sceneFlags.claimID,
		ViewMode:   prompts.ViewMode(opts.ViewMode),
		Regenerate: sceneFlags.regenerate,
		Evidence:   sceneFlags.evidence,
	}
	// 指定されたフラグだけを部分更新として渡すのだ
	if cmd.Flags().Changed("notes") {
		req.Patch.AdjusterNotes = &sceneFlags.notes
	}
	if cmd.Flags().Changed("fnol") {
		req.Patch.RawFnolData = &sceneFlags.fnol
	}
	if cmd.Flags().Changed("status") {
		status, err := domain.ParseClaimStatus(sceneFlags.status)
		if err != nil {
			return err
		}
		req.Patch.Status = &status
	}

	slog.Info("シーン生成パイプラインを起動するのだ！",
		"claim_id", req.ClaimID,
		"view_mode", req.ViewMode,
		"image_model", cfg.WorkflowConfig().ImageModel,
		"output", cfg.Options.OutputDir)

	res, err := pipeline.ExecuteScene(ctx, cfg, req)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	if res.ScenePath == "" {
		slog.Warn("シーン画像を生成できなかったのだ。レポートのみ保存したのだ", "report", res.ReportPath)
		return nil
	}
	slog.Info("すべての生成工程が完了したのだ！", "scene", res.ScenePath, "regions", res.RegionsPath)
	return nil
}
