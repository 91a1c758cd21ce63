package cmd

import (
	"github.com/shouni/go-claim-scene-kit/internal/pipeline"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"

	"github.com/spf13/cobra"
)

var promptClaimID string

// promptCmd は、シーン生成に使うプロンプトを API を呼ばずに表示するのだ。
// モード指定やメモの反映具合を確認するのに便利なのだ。
var promptCmd = &cobra.Command{
	Use:         "prompt",
	Short:       "シーン生成プロンプト（JSON）を表示するのだ。",
	Annotations: map[string]string{annotationOffline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecutePrompt(loadConfig(), promptClaimID, prompts.ViewMode(opts.ViewMode), cmd.OutOrStdout())
	},
}

func init() {
	promptCmd.Flags().StringVarP(&promptClaimID, "claim", "c", "", "対象の請求IDなのだ。")
	_ = promptCmd.MarkFlagRequired("claim")
}
