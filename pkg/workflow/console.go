package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shouni/go-claim-scene-kit/pkg/cache"
	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Caches はコンソールが使う請求IDキーのキャッシュ群です。
type Caches struct {
	Scene    *cache.Store[string]
	Evidence *cache.Store[[]string]
	Regions  *cache.Store[[]domain.DamageRegion]
}

// NewCaches は空のキャッシュ群を生成します。
func NewCaches() Caches {
	return Caches{
		Scene:    cache.New[string](),
		Evidence: cache.New[[]string](),
		Regions:  cache.New[[]domain.DamageRegion](),
	}
}

// Reset はすべてのキャッシュを空にします。
func (c Caches) Reset() {
	c.Scene.Reset()
	c.Evidence.Reset()
	c.Regions.Reset()
}

// session は請求ごとの表示状態です。token は生成要求ごとに増加し、古い応答の破棄に使います。
type session struct {
	viewMode  prompts.ViewMode
	scene     SceneStatus
	sceneErr  string
	detection DetectionStatus
	detectErr string
	token     uint64
}

// ConsoleArgs は Console の依存関係です。
type ConsoleArgs struct {
	Claims          domain.ClaimsMap
	Caches          *Caches // nil なら新規に生成します
	Scene           SceneGenerator
	Detector        DamageDetector
	InitialViewMode prompts.ViewMode
	// EvidenceLimiter はギャラリー生成の送信間隔を制御します。nil なら制限しません。
	EvidenceLimiter *rate.Limiter
}

// Console は請求ごとのシーン生成・損傷検出・エビデンス生成を統括します。
type Console struct {
	mu       sync.Mutex
	claims   domain.ClaimsMap
	sessions map[string]*session
	caches   Caches

	scene           SceneGenerator
	detector        DamageDetector
	initialViewMode prompts.ViewMode
	limiter         *rate.Limiter
	evidenceGroup   singleflight.Group
}

// NewConsole は Console を初期化します。
func NewConsole(args ConsoleArgs) (*Console, error) {
	if args.Claims == nil {
		return nil, fmt.Errorf("Claims は必須です")
	}
	if args.Scene == nil {
		return nil, fmt.Errorf("SceneGenerator は必須です")
	}
	if args.Detector == nil {
		return nil, fmt.Errorf("DamageDetector は必須です")
	}

	caches := NewCaches()
	if args.Caches != nil {
		caches = *args.Caches
	}
	mode := args.InitialViewMode
	if mode == "" {
		mode = prompts.DefaultViewMode
	}

	claims := make(domain.ClaimsMap, len(args.Claims))
	for id, c := range args.Claims {
		claims[id] = c
	}

	return &Console{
		claims:          claims,
		sessions:        make(map[string]*session),
		caches:          caches,
		scene:           args.Scene,
		detector:        args.Detector,
		initialViewMode: mode,
		limiter:         args.EvidenceLimiter,
	}, nil
}

// Caches はコンソールが保持するキャッシュ群を返します。
func (c *Console) Caches() Caches {
	return c.caches
}

// Claims は全請求をID順で返します。
func (c *Console) Claims() []domain.Claim {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Claim, 0, len(c.claims))
	for _, id := range c.claims.SortedIDs() {
		out = append(out, c.claims[id])
	}
	return out
}

// Claim は指定IDの請求を返します。
func (c *Console) Claim(claimID string) (domain.Claim, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claim, ok := c.claims[claimID]
	if !ok {
		return domain.Claim{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	return claim, nil
}

// UpdateClaim は部分更新をマージします。キャッシュ済みの画像や検出結果は無効化しません。
func (c *Console) UpdateClaim(claimID string, patch domain.ClaimPatch) (domain.Claim, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claim, ok := c.claims[claimID]
	if !ok {
		return domain.Claim{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Claim{}, fmt.Errorf("不明なステータスです: '%s'", *patch.Status)
	}
	merged := claim.Merge(patch)
	c.claims[claimID] = merged
	return merged, nil
}

// SetViewMode は次回の再生成で使う表示モードを記録します。再生成は行いません。
func (c *Console) SetViewMode(claimID string, mode prompts.ViewMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.claims[claimID]; !ok {
		return fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	if !mode.Known() {
		slog.Warn("Unknown view mode, default camera and style will be used", "claim_id", claimID, "view_mode", mode)
	}
	c.sessionLocked(claimID).viewMode = mode
	return nil
}

// Display は請求を表示します。キャッシュ済みなら生成を行わず、未生成なら生成してから損傷検出を行います。
func (c *Console) Display(ctx context.Context, claimID string) (View, error) {
	c.mu.Lock()
	claim, ok := c.claims[claimID]
	if !ok {
		c.mu.Unlock()
		return View{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	s := c.sessionLocked(claimID)
	if s.scene == SceneGenerating {
		// 生成中の要求が結果を反映するまで既存画像を戻さない
		c.mu.Unlock()
		return c.Snapshot(claimID)
	}

	var token uint64
	needsGeneration := false
	if _, cached := c.caches.Scene.Get(claimID); cached {
		s.scene, s.sceneErr = SceneReady, ""
	} else if claim.GeneratedImage != "" {
		c.caches.Scene.Set(claimID, claim.GeneratedImage)
		s.scene, s.sceneErr = SceneReady, ""
	} else {
		token = beginSceneLocked(s)
		needsGeneration = true
	}
	c.mu.Unlock()

	if needsGeneration {
		c.generateScene(ctx, claimID, token)
	}
	c.ensureDetection(ctx, claimID)
	return c.Snapshot(claimID)
}

// Regenerate はキャッシュ済みの画像と検出結果を破棄し、現在の表示モードで再生成します。
func (c *Console) Regenerate(ctx context.Context, claimID string) (View, error) {
	c.mu.Lock()
	if _, ok := c.claims[claimID]; !ok {
		c.mu.Unlock()
		return View{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	c.caches.Scene.Delete(claimID)
	c.caches.Regions.Delete(claimID)
	token := beginSceneLocked(c.sessionLocked(claimID))
	c.mu.Unlock()

	c.generateScene(ctx, claimID, token)
	c.ensureDetection(ctx, claimID)
	return c.Snapshot(claimID)
}

// Snapshot は現在の状態を返します。ネットワーク呼び出しは行いません。
func (c *Console) Snapshot(claimID string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.claims[claimID]; !ok {
		return View{}, fmt.Errorf("%w: %s", ErrClaimNotFound, claimID)
	}
	s := c.sessionLocked(claimID)
	v := View{
		ClaimID:        claimID,
		ViewMode:       s.viewMode,
		Scene:          s.scene,
		SceneError:     s.sceneErr,
		Detection:      s.detection,
		DetectionError: s.detectErr,
		Regions:        []domain.DamageRegion{},
	}
	if s.scene == SceneReady {
		v.Image, _ = c.caches.Scene.Get(claimID)
	}
	if regions, ok := c.caches.Regions.Get(claimID); ok && s.detection == DetectionReady {
		v.Regions = slices.Clone(regions)
	}
	return v, nil
}

// beginSceneLocked はトークンを進めて生成中状態にし、新しいトークンを返します。
// c.mu を保持した状態で呼び出す必要があります。
func beginSceneLocked(s *session) uint64 {
	s.token++
	s.scene, s.sceneErr = SceneGenerating, ""
	s.detection, s.detectErr = DetectionIdle, ""
	return s.token
}

// generateScene は beginSceneLocked で得たトークンの要求として画像を生成し、最新の要求であれば結果を反映します。
func (c *Console) generateScene(ctx context.Context, claimID string, token uint64) {
	c.mu.Lock()
	claim := c.claims[claimID]
	s := c.sessionLocked(claimID)
	mode := s.viewMode
	c.mu.Unlock()

	slog.InfoContext(ctx, "Generating scene image", "claim_id", claimID, "view_mode", mode)

	prompt, err := prompts.BuildScenePrompt(claim, mode)
	var img string
	if err == nil {
		img, err = c.scene.Generate(ctx, prompt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.token != token {
		slog.InfoContext(ctx, "Discarding stale scene response", "claim_id", claimID, "token", token, "current", s.token)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Scene generation failed", "claim_id", claimID, "error", err)
		s.scene, s.sceneErr = SceneFailed, err.Error()
		return
	}
	c.caches.Scene.Set(claimID, img)
	s.scene = SceneReady
}

// ensureDetection は画像があり検出結果が未知の場合に損傷検出を行います。
func (c *Console) ensureDetection(ctx context.Context, claimID string) {
	c.mu.Lock()
	s := c.sessionLocked(claimID)
	img, ok := c.caches.Scene.Get(claimID)
	if !ok || s.scene != SceneReady || s.detection == DetectionAnalyzing {
		c.mu.Unlock()
		return
	}
	if _, known := c.caches.Regions.Get(claimID); known {
		s.detection, s.detectErr = DetectionReady, ""
		c.mu.Unlock()
		return
	}
	token := s.token
	s.detection, s.detectErr = DetectionAnalyzing, ""
	c.mu.Unlock()

	regions, err := c.detector.Detect(ctx, img)

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.token != token {
		slog.InfoContext(ctx, "Discarding stale detection response", "claim_id", claimID, "token", token, "current", s.token)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Damage detection failed", "claim_id", claimID, "error", err)
		s.detection, s.detectErr = DetectionFailed, err.Error()
		return
	}
	if regions == nil {
		regions = []domain.DamageRegion{}
	}
	c.caches.Regions.Set(claimID, regions)
	s.detection = DetectionReady
	slog.InfoContext(ctx, "Damage detection completed", "claim_id", claimID, "regions", len(regions))
}

// sessionLocked は c.mu を保持した状態で呼び出す必要があります。
func (c *Console) sessionLocked(claimID string) *session {
	s, ok := c.sessions[claimID]
	if !ok {
		s = &session{
			viewMode:  c.initialViewMode,
			scene:     SceneIdle,
			detection: DetectionIdle,
		}
		c.sessions[claimID] = s
	}
	return s
}
