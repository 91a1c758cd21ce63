package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shouni/go-claim-scene-kit/pkg/prompts"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// evidenceResult は1バッチ分の結果です。singleflight で共有されます。
type evidenceResult struct {
	images   []string
	failures map[string]string
}

// GenerateEvidence はエビデンスギャラリーを返します。
// キャッシュに1枚以上あればそれを返し、なければ4つのバリエーションを並行して生成します。
func (c *Console) GenerateEvidence(ctx context.Context, claimID string) (EvidenceView, error) {
	if _, err := c.Claim(claimID); err != nil {
		return EvidenceView{}, err
	}
	if cached, ok := c.caches.Evidence.Get(claimID); ok && len(cached) > 0 {
		return EvidenceView{
			ClaimID:   claimID,
			Images:    slices.Clone(cached),
			Failures:  map[string]string{},
			FromCache: true,
		}, nil
	}
	return c.runEvidence(ctx, claimID)
}

// RegenerateEvidence はキャッシュを参照せずにギャラリーを生成し直します。
// 1枚も成功しなかった場合、既存のキャッシュはそのまま残ります。
func (c *Console) RegenerateEvidence(ctx context.Context, claimID string) (EvidenceView, error) {
	if _, err := c.Claim(claimID); err != nil {
		return EvidenceView{}, err
	}
	return c.runEvidence(ctx, claimID)
}

// runEvidence は同一請求への同時要求を1つのバッチにまとめます。
// バッチは呼び出し元のキャンセルから切り離して実行し、キャンセルした呼び出し元だけが先に戻ります。
func (c *Console) runEvidence(ctx context.Context, claimID string) (EvidenceView, error) {
	ch := c.evidenceGroup.DoChan(claimID, func() (interface{}, error) {
		return c.generateEvidenceBatch(context.WithoutCancel(ctx), claimID)
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return EvidenceView{}, ctx.Err()
	case r = <-ch:
	}
	if r.Err != nil {
		return EvidenceView{}, r.Err
	}
	if r.Shared {
		slog.DebugContext(ctx, "Evidence batch shared with an in-flight request", "claim_id", claimID)
	}

	res := r.Val.(*evidenceResult)
	failures := make(map[string]string, len(res.failures))
	for k, msg := range res.failures {
		failures[k] = msg
	}
	return EvidenceView{
		ClaimID:  claimID,
		Images:   slices.Clone(res.images),
		Failures: failures,
	}, nil
}

// generateEvidenceBatch は4枚を並行生成し、成功分のみを発行順で返します。
func (c *Console) generateEvidenceBatch(ctx context.Context, claimID string) (*evidenceResult, error) {
	claim, err := c.Claim(claimID)
	if err != nil {
		return nil, err
	}
	evidencePrompts, err := prompts.BuildEvidencePrompts(claim)
	if err != nil {
		return nil, fmt.Errorf("エビデンスプロンプトの構築に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Generating evidence gallery", "claim_id", claimID, "count", len(evidencePrompts))

	images := make([]string, len(evidencePrompts))
	errs := make([]error, len(evidencePrompts))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range evidencePrompts {
		eg.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(egCtx); err != nil {
					errs[i] = err
					return nil
				}
			}
			img, err := c.scene.Generate(egCtx, p)
			if err != nil {
				errs[i] = err
				return nil
			}
			images[i] = img
			return nil
		})
	}
	// 各 goroutine は個別の失敗を errs に記録し、常に nil を返します。
	_ = eg.Wait()

	res := &evidenceResult{failures: make(map[string]string)}
	for i, img := range images {
		name := prompts.EvidenceVariants[i].Name
		if errs[i] != nil {
			slog.WarnContext(ctx, "Evidence image generation failed", "claim_id", claimID, "variant", name, "error", errs[i])
			res.failures[name] = errs[i].Error()
			continue
		}
		res.images = append(res.images, img)
	}

	if len(res.images) > 0 {
		c.caches.Evidence.Set(claimID, slices.Clone(res.images))
	}
	slog.InfoContext(ctx, "Evidence gallery completed", "claim_id", claimID, "succeeded", len(res.images), "failed", len(res.failures))
	return res, nil
}
