package workflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
	"github.com/shouni/go-claim-scene-kit/pkg/prompts"
)

const (
	imgA = "data:image/png;base64,QUFB"
	imgB = "data:image/png;base64,QkJC"
)

// fakeScene は Generate の呼び出しを記録します。gen が nil なら imgA を返します。
type fakeScene struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	gen     func(call int, prompt string) (string, error)
}

func (f *fakeScene) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	gen := f.gen
	f.mu.Unlock()

	img := imgA
	var err error
	if gen != nil {
		img, err = gen(call, prompt)
	}
	// 実クライアントと同様に、キャンセル済みの ctx では失敗させます
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return img, err
}

func (f *fakeScene) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeScene) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeDetector struct {
	mu      sync.Mutex
	calls   int
	images  []string
	regions []domain.DamageRegion
	err     error
}

func (f *fakeDetector) Detect(_ context.Context, image string) ([]domain.DamageRegion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.images = append(f.images, image)
	if f.err != nil {
		return []domain.DamageRegion{}, f.err
	}
	return f.regions, nil
}

var dentRegion = domain.DamageRegion{
	ID:         "dmg-0",
	Label:      "Dent",
	Box:        domain.BoundingBox{YMin: 0.1, XMin: 0.2, YMax: 0.3, XMax: 0.4},
	Confidence: 0.95,
}

func testClaims() domain.ClaimsMap {
	return domain.ClaimsMap{
		"CLM-1": {
			ID:          "CLM-1",
			Status:      domain.StatusReview,
			Location:    "Central Garage",
			Description: "rear bumper dent",
			CarDetails:  domain.CarDetails{Make: "Toyota", Model: "Camry", Year: 2022, Color: "Silver", PlateNumber: "K29-FLA"},
			RawFnolData: "Caller reports a low speed impact.",
		},
		"CLM-2": {
			ID:             "CLM-2",
			Status:         domain.StatusApproved,
			GeneratedImage: imgB,
		},
	}
}

func newTestConsole(t *testing.T, scene *fakeScene, det *fakeDetector) *Console {
	t.Helper()
	c, err := NewConsole(ConsoleArgs{Claims: testClaims(), Scene: scene, Detector: det})
	if err != nil {
		t.Fatalf("NewConsole に失敗: %v", err)
	}
	return c
}

func TestNewConsole_Validation(t *testing.T) {
	if _, err := NewConsole(ConsoleArgs{Scene: &fakeScene{}, Detector: &fakeDetector{}}); err == nil {
		t.Error("Claims が nil でもエラーになりませんでした")
	}
	if _, err := NewConsole(ConsoleArgs{Claims: testClaims(), Detector: &fakeDetector{}}); err == nil {
		t.Error("SceneGenerator が nil でもエラーになりませんでした")
	}
	if _, err := NewConsole(ConsoleArgs{Claims: testClaims(), Scene: &fakeScene{}}); err == nil {
		t.Error("DamageDetector が nil でもエラーになりませんでした")
	}
}

func TestConsole_Display(t *testing.T) {
	ctx := context.Background()

	t.Run("未生成なら生成と検出を行い結果をキャッシュすること", func(t *testing.T) {
		scene := &fakeScene{}
		det := &fakeDetector{regions: []domain.DamageRegion{dentRegion}}
		c := newTestConsole(t, scene, det)

		v, err := c.Display(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Scene != SceneReady || v.Image != imgA || !v.HasImage() {
			t.Errorf("シーン状態が不正です: %+v", v)
		}
		if v.Detection != DetectionReady || !reflect.DeepEqual(v.Regions, []domain.DamageRegion{dentRegion}) {
			t.Errorf("検出結果が不正です: %+v", v)
		}
		if v.ViewMode != prompts.DefaultViewMode {
			t.Errorf("ViewMode = %q", v.ViewMode)
		}
		if got, ok := c.Caches().Scene.Get("CLM-1"); !ok || got != imgA {
			t.Errorf("シーンキャッシュ = %q, %v", got, ok)
		}
		if !reflect.DeepEqual(det.images, []string{imgA}) {
			t.Errorf("検出に渡された画像 = %v", det.images)
		}
	})

	t.Run("キャッシュ済みなら生成も検出も呼ばないこと", func(t *testing.T) {
		scene := &fakeScene{}
		det := &fakeDetector{}
		c := newTestConsole(t, scene, det)
		c.Caches().Scene.Set("CLM-1", imgB)
		c.Caches().Regions.Set("CLM-1", []domain.DamageRegion{dentRegion})

		v, err := c.Display(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scene.callCount() != 0 || det.calls != 0 {
			t.Errorf("外部呼び出しが発生しました: scene=%d detect=%d", scene.callCount(), det.calls)
		}
		if v.Image != imgB || len(v.Regions) != 1 {
			t.Errorf("キャッシュの内容が返されていません: %+v", v)
		}
	})

	t.Run("事前生成画像があればそれを使うこと", func(t *testing.T) {
		scene := &fakeScene{}
		det := &fakeDetector{}
		c := newTestConsole(t, scene, det)

		v, err := c.Display(ctx, "CLM-2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scene.callCount() != 0 {
			t.Errorf("生成が呼ばれました: %d", scene.callCount())
		}
		if v.Image != imgB {
			t.Errorf("Image = %q", v.Image)
		}
		if det.calls != 1 {
			t.Errorf("検出呼び出し回数 = %d", det.calls)
		}
	})

	t.Run("生成失敗時は Failed となり理由を保持すること", func(t *testing.T) {
		scene := &fakeScene{gen: func(int, string) (string, error) { return "", errors.New("quota exceeded") }}
		det := &fakeDetector{}
		c := newTestConsole(t, scene, det)

		v, err := c.Display(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Scene != SceneFailed || v.HasImage() || !strings.Contains(v.SceneError, "quota exceeded") {
			t.Errorf("失敗状態が不正です: %+v", v)
		}
		if det.calls != 0 {
			t.Error("画像がないのに検出が呼ばれました")
		}
		if _, ok := c.Caches().Scene.Get("CLM-1"); ok {
			t.Error("失敗結果がキャッシュされました")
		}
	})

	t.Run("検出結果が空でも Ready としてキャッシュすること", func(t *testing.T) {
		det := &fakeDetector{regions: []domain.DamageRegion{}}
		c := newTestConsole(t, &fakeScene{}, det)

		v, _ := c.Display(ctx, "CLM-1")
		if v.Detection != DetectionReady || v.Regions == nil || len(v.Regions) != 0 {
			t.Errorf("検出状態が不正です: %+v", v)
		}
		if _, ok := c.Caches().Regions.Get("CLM-1"); !ok {
			t.Error("空の検出結果がキャッシュされていません")
		}
		c.Display(ctx, "CLM-1")
		if det.calls != 1 {
			t.Errorf("再表示で検出が再実行されました: %d", det.calls)
		}
	})

	t.Run("検出失敗はキャッシュせず再表示で再試行すること", func(t *testing.T) {
		det := &fakeDetector{err: errors.New("malformed")}
		c := newTestConsole(t, &fakeScene{}, det)

		v, _ := c.Display(ctx, "CLM-1")
		if v.Detection != DetectionFailed || len(v.Regions) != 0 || v.DetectionError == "" {
			t.Errorf("検出失敗の状態が不正です: %+v", v)
		}
		if _, ok := c.Caches().Regions.Get("CLM-1"); ok {
			t.Error("失敗した検出結果がキャッシュされました")
		}

		det.mu.Lock()
		det.err = nil
		det.regions = []domain.DamageRegion{dentRegion}
		det.mu.Unlock()

		v, _ = c.Display(ctx, "CLM-1")
		if v.Detection != DetectionReady || len(v.Regions) != 1 {
			t.Errorf("再試行後の状態が不正です: %+v", v)
		}
	})

	t.Run("未登録IDは ErrClaimNotFound を返すこと", func(t *testing.T) {
		c := newTestConsole(t, &fakeScene{}, &fakeDetector{})
		if _, err := c.Display(ctx, "NOPE"); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("err = %v", err)
		}
		if _, err := c.Regenerate(ctx, "NOPE"); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("err = %v", err)
		}
		if err := c.SetViewMode("NOPE", prompts.ViewAerialDrone); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("err = %v", err)
		}
		if _, err := c.UpdateClaim("NOPE", domain.ClaimPatch{}); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("err = %v", err)
		}
		if _, err := c.GenerateEvidence(ctx, "NOPE"); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestConsole_RegenerateAndViewMode(t *testing.T) {
	ctx := context.Background()

	scene := &fakeScene{gen: func(call int, _ string) (string, error) {
		if call == 1 {
			return imgA, nil
		}
		return imgB, nil
	}}
	det := &fakeDetector{regions: []domain.DamageRegion{dentRegion}}
	c := newTestConsole(t, scene, det)

	if _, err := c.Display(ctx, "CLM-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// モード変更だけでは再生成しない
	if err := c.SetViewMode("CLM-1", prompts.ViewStreetLevel); err != nil {
		t.Fatalf("SetViewMode: %v", err)
	}
	v, _ := c.Display(ctx, "CLM-1")
	if scene.callCount() != 1 || v.Image != imgA {
		t.Fatalf("モード変更で再生成されました: calls=%d image=%q", scene.callCount(), v.Image)
	}
	if v.ViewMode != prompts.ViewStreetLevel {
		t.Errorf("ViewMode = %q", v.ViewMode)
	}

	// 編集ではキャッシュを無効化しない
	notes := "Rear camera confirms the impact."
	if _, err := c.UpdateClaim("CLM-1", domain.ClaimPatch{AdjusterNotes: &notes}); err != nil {
		t.Fatalf("UpdateClaim: %v", err)
	}
	c.Display(ctx, "CLM-1")
	if scene.callCount() != 1 {
		t.Fatalf("編集で再生成されました: %d", scene.callCount())
	}

	// 再生成は現在のモードと編集内容を使い、検出結果も置き換える
	v, err := c.Regenerate(ctx, "CLM-1")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if scene.callCount() != 2 || v.Image != imgB {
		t.Errorf("再生成結果が不正です: calls=%d image=%q", scene.callCount(), v.Image)
	}
	camera, _ := prompts.ViewSpec(prompts.ViewStreetLevel)
	if p := scene.lastPrompt(); !strings.Contains(p, camera) || !strings.Contains(p, notes) {
		t.Errorf("再生成プロンプトにモードまたはメモが反映されていません: %s", p)
	}
	if !reflect.DeepEqual(det.images, []string{imgA, imgB}) {
		t.Errorf("検出に渡された画像 = %v", det.images)
	}
}

func TestConsole_RegenerateClearsRegionsOnFailure(t *testing.T) {
	ctx := context.Background()
	scene := &fakeScene{gen: func(call int, _ string) (string, error) {
		if call == 1 {
			return imgA, nil
		}
		return "", errors.New("network down")
	}}
	det := &fakeDetector{regions: []domain.DamageRegion{dentRegion}}
	c := newTestConsole(t, scene, det)

	c.Display(ctx, "CLM-1")
	v, _ := c.Regenerate(ctx, "CLM-1")
	if v.Scene != SceneFailed || len(v.Regions) != 0 || v.Detection != DetectionIdle {
		t.Errorf("再生成失敗後の状態が不正です: %+v", v)
	}
	if _, ok := c.Caches().Regions.Get("CLM-1"); ok {
		t.Error("古い検出結果が残っています")
	}
}

func TestConsole_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	scene := &fakeScene{gen: func(call int, _ string) (string, error) {
		if call == 1 {
			close(started)
			<-release
			return imgA, nil
		}
		return imgB, nil
	}}
	det := &fakeDetector{regions: []domain.DamageRegion{dentRegion}}
	c := newTestConsole(t, scene, det)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Display(ctx, "CLM-1")
	}()
	<-started

	v, err := c.Regenerate(ctx, "CLM-1")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if v.Image != imgB {
		t.Fatalf("新しい要求の結果が反映されていません: %q", v.Image)
	}

	close(release)
	<-done

	v, _ = c.Snapshot("CLM-1")
	if v.Image != imgB || v.Scene != SceneReady {
		t.Errorf("古い応答で上書きされました: %+v", v)
	}
	if got, _ := c.Caches().Scene.Get("CLM-1"); got != imgB {
		t.Errorf("シーンキャッシュ = %q", got)
	}
	if !reflect.DeepEqual(det.images, []string{imgB}) {
		t.Errorf("検出に渡された画像 = %v", det.images)
	}
}

func TestConsole_DisplayDuringRegenerate(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	scene := &fakeScene{gen: func(int, string) (string, error) {
		close(started)
		<-release
		return imgA, nil
	}}
	det := &fakeDetector{regions: []domain.DamageRegion{dentRegion}}
	c := newTestConsole(t, scene, det)

	if _, err := c.Display(ctx, "CLM-2"); err != nil {
		t.Fatalf("Display: %v", err)
	}

	type result struct {
		view View
		err  error
	}
	done := make(chan result, 1)
	go func() {
		v, err := c.Regenerate(ctx, "CLM-2")
		done <- result{v, err}
	}()
	<-started

	mid, err := c.Display(ctx, "CLM-2")
	if err != nil {
		t.Fatalf("Display: %v", err)
	}
	if mid.Scene != SceneGenerating || mid.Image != "" {
		t.Errorf("再生成中に旧画像が表示されました: %+v", mid)
	}
	if _, ok := c.Caches().Scene.Get("CLM-2"); ok {
		t.Error("再生成中にシーンキャッシュが書き戻されました")
	}

	close(release)
	res := <-done
	if res.err != nil {
		t.Fatalf("Regenerate: %v", res.err)
	}
	if res.view.Image != imgA || res.view.Detection != DetectionReady {
		t.Errorf("再生成結果 = %+v", res.view)
	}
	if !reflect.DeepEqual(det.images, []string{imgB, imgA}) {
		t.Errorf("検出に渡された画像 = %v", det.images)
	}
}

func TestConsole_UpdateClaim(t *testing.T) {
	c := newTestConsole(t, &fakeScene{}, &fakeDetector{})

	fnol := "new transcript"
	status := domain.StatusPending
	got, err := c.UpdateClaim("CLM-1", domain.ClaimPatch{RawFnolData: &fnol, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RawFnolData != fnol || got.Status != status || got.Location != "Central Garage" {
		t.Errorf("マージ結果が不正です: %+v", got)
	}
	stored, _ := c.Claim("CLM-1")
	if !reflect.DeepEqual(stored, got) {
		t.Errorf("保存された請求が一致しません: %+v", stored)
	}

	bad := domain.ClaimStatus("Closed")
	if _, err := c.UpdateClaim("CLM-1", domain.ClaimPatch{Status: &bad}); err == nil {
		t.Error("不明なステータスでエラーになりませんでした")
	}

	ids := []string{}
	for _, cl := range c.Claims() {
		ids = append(ids, cl.ID)
	}
	if !reflect.DeepEqual(ids, []string{"CLM-1", "CLM-2"}) {
		t.Errorf("Claims の順序 = %v", ids)
	}
}

func TestConsole_GenerateEvidence(t *testing.T) {
	ctx := context.Background()

	t.Run("成功分のみを発行順で返しキャッシュすること", func(t *testing.T) {
		scene := &fakeScene{gen: func(_ int, p string) (string, error) {
			switch {
			case strings.HasSuffix(p, prompts.EvidenceVariants[0].Suffix):
				return "", errors.New("blocked")
			case strings.HasSuffix(p, prompts.EvidenceVariants[1].Suffix):
				return "wide", nil
			case strings.HasSuffix(p, prompts.EvidenceVariants[2].Suffix):
				return "", errors.New("timeout")
			default:
				return "eye", nil
			}
		}}
		c := newTestConsole(t, scene, &fakeDetector{})

		ev, err := c.GenerateEvidence(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(ev.Images, []string{"wide", "eye"}) {
			t.Errorf("Images = %v", ev.Images)
		}
		if len(ev.Failures) != 2 || ev.Failures["close-up"] == "" || ev.Failures["side"] == "" {
			t.Errorf("Failures = %v", ev.Failures)
		}
		if ev.FromCache {
			t.Error("初回がキャッシュ扱いになっています")
		}
		if scene.callCount() != 4 {
			t.Errorf("生成回数 = %d", scene.callCount())
		}

		again, _ := c.GenerateEvidence(ctx, "CLM-1")
		if !again.FromCache || !reflect.DeepEqual(again.Images, []string{"wide", "eye"}) || scene.callCount() != 4 {
			t.Errorf("キャッシュが使われていません: %+v calls=%d", again, scene.callCount())
		}
	})

	t.Run("全て失敗した場合はキャッシュしないこと", func(t *testing.T) {
		scene := &fakeScene{gen: func(int, string) (string, error) { return "", errors.New("down") }}
		c := newTestConsole(t, scene, &fakeDetector{})

		ev, err := c.GenerateEvidence(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ev.Images) != 0 || len(ev.Failures) != 4 {
			t.Errorf("結果が不正です: %+v", ev)
		}
		if _, ok := c.Caches().Evidence.Get("CLM-1"); ok {
			t.Error("失敗したバッチがキャッシュされました")
		}
	})

	t.Run("再生成で失敗しても既存のキャッシュは残ること", func(t *testing.T) {
		scene := &fakeScene{gen: func(int, string) (string, error) { return "", errors.New("down") }}
		c := newTestConsole(t, scene, &fakeDetector{})
		c.Caches().Evidence.Set("CLM-1", []string{"old"})

		ev, _ := c.RegenerateEvidence(ctx, "CLM-1")
		if ev.FromCache || len(ev.Images) != 0 {
			t.Errorf("再生成がキャッシュを返しました: %+v", ev)
		}
		if got, _ := c.Caches().Evidence.Get("CLM-1"); !reflect.DeepEqual(got, []string{"old"}) {
			t.Errorf("既存のキャッシュ = %v", got)
		}
	})

	t.Run("呼び出し元がキャンセルしても共有バッチは完了しキャッシュされること", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		scene := &fakeScene{gen: func(int, string) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return imgA, nil
		}}
		c := newTestConsole(t, scene, &fakeDetector{})

		cancelCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := c.GenerateEvidence(cancelCtx, "CLM-1")
			done <- err
		}()
		<-started
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("キャンセルした呼び出し元の err = %v", err)
		}

		close(release)
		ev, err := c.GenerateEvidence(ctx, "CLM-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ev.Images) != 4 || len(ev.Failures) != 0 {
			t.Errorf("結果が不正です: %+v", ev)
		}
		if scene.callCount() != 4 {
			t.Errorf("生成回数 = %d", scene.callCount())
		}
	})

	t.Run("Reset で全キャッシュが空になること", func(t *testing.T) {
		c := newTestConsole(t, &fakeScene{}, &fakeDetector{})
		c.Display(ctx, "CLM-1")
		c.GenerateEvidence(ctx, "CLM-1")
		c.Caches().Reset()
		caches := c.Caches()
		if caches.Scene.Len()+caches.Evidence.Len()+caches.Regions.Len() != 0 {
			t.Error("キャッシュが残っています")
		}
	})
}
