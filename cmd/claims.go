package cmd

import (
	"github.com/shouni/go-claim-scene-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// claimsCmd は、読み込んだ請求の一覧を表示するのだ。
var claimsCmd = &cobra.Command{
	Use:         "claims",
	Short:       "請求の一覧を表示するのだ。",
	Annotations: map[string]string{annotationOffline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteListClaims(loadConfig(), cmd.OutOrStdout())
	},
}
