package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shouni/go-claim-scene-kit/internal/builder"
	"github.com/shouni/go-claim-scene-kit/internal/config"
	"github.com/shouni/go-claim-scene-kit/internal/runner"
	"github.com/shouni/go-claim-scene-kit/pkg/generator"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
	"github.com/shouni/go-claim-scene-kit/pkg/publisher"

	"github.com/shouni/gemini-image-kit/imgutil"
)

// ExecuteScene は、請求の編集を反映してシーン画像を表示（生成またはキャッシュ）し、
// 損傷検出の結果とあわせて保存するのだ。
func ExecuteScene(ctx context.Context, cfg *config.Config, req runner.SceneRequest) (publisher.PublishResult, error) {
	return executeScene(ctx, cfg, req, nil)
}

// ExecuteEvidence は、エビデンスギャラリーだけを生成して保存するのだ。
func ExecuteEvidence(ctx context.Context, cfg *config.Config, claimID string, regenerate bool) (publisher.PublishResult, error) {
	return executeEvidence(ctx, cfg, claimID, regenerate, nil)
}

// ExecuteDetect は、手元の写真ファイルから損傷箇所を検出して損傷領域JSONを保存するのだ。
// name が空ならファイル名（拡張子なし）を保存名に使うのだ。
func ExecuteDetect(ctx context.Context, cfg *config.Config, imagePath, name string) (string, error) {
	return executeDetect(ctx, cfg, imagePath, name, nil)
}

// ExecutePrompt は、ネットワーク呼び出しを行わずにシーン生成プロンプトを書き出すのだ。
func ExecutePrompt(cfg *config.Config, claimID string, mode prompts.ViewMode, w io.Writer) error {
	appCtx, err := builder.LoadAppContext(cfg)
	if err != nil {
		return err
	}
	claim, ok := appCtx.Claims[claimID]
	if !ok {
		return fmt.Errorf("請求 '%s' が見つからないのだ", claimID)
	}
	if mode == "" {
		mode = prompts.ViewMode(config.DefaultViewMode)
	}
	p, err := prompts.BuildScenePrompt(claim, mode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, p)
	return err
}

// ExecuteListClaims は、読み込んだ請求を一覧表示するのだ。
func ExecuteListClaims(cfg *config.Config, w io.Writer) error {
	appCtx, err := builder.LoadAppContext(cfg)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tHOLDER\tVEHICLE\tESTIMATE")
	for _, id := range appCtx.Claims.SortedIDs() {
		c := appCtx.Claims[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t$%.2f\n", c.ID, c.Status, c.Type, c.Holder.Name, c.VehicleSummary(), c.DamageEstimate)
	}
	return tw.Flush()
}

func executeScene(ctx context.Context, cfg *config.Config, req runner.SceneRequest, client generator.ContentGenerator) (publisher.PublishResult, error) {
	appCtx, err := builder.LoadAppContext(cfg)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	console, err := builder.BuildConsole(ctx, appCtx, client)
	if err != nil {
		return publisher.PublishResult{}, err
	}

	// --- Phase 1: Scene Phase (表示・検出) ---
	slog.Info("Phase 1: シーン表示を開始するのだ...", "claim_id", req.ClaimID, "regenerate", req.Regenerate)
	res, err := builder.BuildSceneRunner(console).Run(ctx, req)
	if err != nil {
		return publisher.PublishResult{}, fmt.Errorf("シーン表示に失敗したのだ: %w", err)
	}

	// --- Phase 2: Publish Phase (公開/保存) ---
	in := publisher.PublishInput{
		Claim:    res.Claim,
		ViewMode: string(res.View.ViewMode),
		Regions:  res.View.Regions,
	}
	if res.View.HasImage() {
		in.Scene = res.View.Image
	}
	if res.Evidence != nil {
		in.Evidence = res.Evidence.Images
	}
	return runPublishStep(ctx, appCtx, in)
}

func executeEvidence(ctx context.Context, cfg *config.Config, claimID string, regenerate bool, client generator.ContentGenerator) (publisher.PublishResult, error) {
	appCtx, err := builder.LoadAppContext(cfg)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	console, err := builder.BuildConsole(ctx, appCtx, client)
	if err != nil {
		return publisher.PublishResult{}, err
	}

	slog.Info("Phase 1: エビデンス生成を開始するのだ...", "claim_id", claimID)
	generate := console.GenerateEvidence
	if regenerate {
		generate = console.RegenerateEvidence
	}
	ev, evErr := generate(ctx, claimID)
	if evErr != nil {
		return publisher.PublishResult{}, fmt.Errorf("エビデンス生成に失敗したのだ: %w", evErr)
	}
	for variant, reason := range ev.Failures {
		slog.Warn("エビデンス画像の生成に失敗したのだ", "variant", variant, "reason", reason)
	}
	if len(ev.Images) == 0 {
		return publisher.PublishResult{}, fmt.Errorf("エビデンス画像が1枚も生成できなかったのだ")
	}

	claim, err := console.Claim(claimID)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	return runPublishStep(ctx, appCtx, publisher.PublishInput{Claim: claim, Evidence: ev.Images})
}

func executeDetect(ctx context.Context, cfg *config.Config, imagePath, name string, client generator.ContentGenerator) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの読み込みに失敗したのだ: %w", err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	}

	appCtx := builder.NewAppContext(cfg, nil, nil)
	detector, err := builder.BuildDamageDetector(ctx, &appCtx, client)
	if err != nil {
		return "", err
	}

	slog.Info("Phase 1: 損傷検出を開始するのだ...", "image", imagePath, "model", detector.Model())
	image := generator.FormatDataURI(imgutil.GuessMIMEType(imagePath), data)
	regions := detector.DetectRegions(ctx, image)

	slog.Info("Phase 2: 損傷領域を保存するのだ...", "regions", len(regions))
	outputDir := appCtx.Options.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}
	path, err := publisher.NewAssetManager(appCtx.Writer, outputDir).WriteRegions(ctx, name, regions)
	if err != nil {
		return "", fmt.Errorf("損傷領域の保存に失敗したのだ: %w", err)
	}
	return path, nil
}

// runPublishStep は PublisherRunner を使って最終成果物を保存するのだ
func runPublishStep(ctx context.Context, appCtx *builder.AppContext, in publisher.PublishInput) (publisher.PublishResult, error) {
	slog.Info("Phase 2: 公開処理を開始するのだ...")
	result, err := builder.BuildPublisherRunner(appCtx).Run(ctx, in)
	if err != nil {
		return result, fmt.Errorf("公開処理に失敗したのだ: %w", err)
	}
	slog.Info("公開処理が完了したのだ！", "report", result.ReportPath)
	return result, nil
}
