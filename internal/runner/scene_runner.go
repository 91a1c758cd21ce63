package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
	"github.com/shouni/go-claim-scene-kit/pkg/workflow"
)

// SceneRequest は scene コマンド1回分の入力です。
type SceneRequest struct {
	ClaimID    string
	Patch      domain.ClaimPatch
	ViewMode   prompts.ViewMode // 空なら現在のモードを維持します
	Regenerate bool
	Evidence   bool
}

// SceneResult は表示結果と、要求された場合のギャラリーです。
type SceneResult struct {
	Claim    domain.Claim
	View     workflow.View
	Evidence *workflow.EvidenceView
}

// SceneRunner は編集の反映、シーン表示、損傷検出、ギャラリー生成を順に実行します。
type SceneRunner struct {
	console *workflow.Console
}

func NewSceneRunner(console *workflow.Console) *SceneRunner {
	return &SceneRunner{console: console}
}

// Run は SceneRequest に従ってコンソールを操作します。
func (r *SceneRunner) Run(ctx context.Context, req SceneRequest) (SceneResult, error) {
	var res SceneResult

	if !req.Patch.IsEmpty() {
		if _, err := r.console.UpdateClaim(req.ClaimID, req.Patch); err != nil {
			return res, fmt.Errorf("請求の更新に失敗しました: %w", err)
		}
	}
	if req.ViewMode != "" {
		if err := r.console.SetViewMode(req.ClaimID, req.ViewMode); err != nil {
			return res, err
		}
	}

	var err error
	if req.Regenerate {
		res.View, err = r.console.Regenerate(ctx, req.ClaimID)
	} else {
		res.View, err = r.console.Display(ctx, req.ClaimID)
	}
	if err != nil {
		return res, err
	}
	if !res.View.HasImage() {
		slog.WarnContext(ctx, "Scene image is not available", "claim_id", req.ClaimID, "reason", res.View.SceneError)
	}

	if req.Evidence {
		var ev workflow.EvidenceView
		if req.Regenerate {
			ev, err = r.console.RegenerateEvidence(ctx, req.ClaimID)
		} else {
			ev, err = r.console.GenerateEvidence(ctx, req.ClaimID)
		}
		if err != nil {
			return res, err
		}
		res.Evidence = &ev
	}

	res.Claim, err = r.console.Claim(req.ClaimID)
	return res, err
}
