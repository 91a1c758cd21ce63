package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-claim-scene-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "claim-console"

// annotationOffline が付いたコマンドは Gemini API を呼ばないので API キーが不要なのだ。
const annotationOffline = "offline"

var (
	opts    config.GenerateOptions
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "保険請求の事故現場シーン生成と損傷検出を行うコンソールなのだ。",
	Long: `請求データを読み込み、事故現場のシーン画像を Gemini で生成して損傷箇所を検出するのだ。
生成した画像・損傷領域・エビデンス写真はレポートとしてローカルに保存するのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 入出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ClaimsFile, "claims-file", "f", "", "請求データ（JSON配列）のパスなのだ。未指定なら CLAIMS_FILE か "+config.DefaultClaimsFile+" を使うのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成物を保存するディレクトリなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "シーン画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.DetectModel, "detect-model", "", "損傷検出に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.ViewMode, "view-mode", "m", "", "表示モード（2D Schematic / Aerial Drone / Isometric 3D / Street Level）なのだ。")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if _, ok := cmd.Annotations[annotationOffline]; ok {
		return nil
	}

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// loadConfig は環境変数を読み込み、CLI フラグを反映した設定を返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(claimsCmd, sceneCmd, evidenceCmd, detectCmd, promptCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "app", appName, "error", err)
		stop()
		os.Exit(1)
	}
}
