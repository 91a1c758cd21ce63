package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shouni/go-claim-scene-kit/pkg/domain"
)

const (
	// FnolContextLimit は FNOL 書き起こしをプロンプトに含める最大文字数です（単語境界は考慮しません）。
	FnolContextLimit = 300

	sceneTask  = "Generate a clear collision scene visualization for insurance claim analysis."
	sceneFocus = "Clear visibility of vehicle damage and surrounding context. easy to understand, uncluttered."
)

// scenePrompt のフィールド順がそのまま JSON の出力順になります。
type scenePrompt struct {
	Task                    string           `json:"task"`
	Vehicle                 vehicleSection   `json:"vehicle"`
	Environment             envSection       `json:"environment"`
	IncidentContextFromFnol string           `json:"incident_context_from_fnol"`
	AdjusterNotes           string           `json:"adjuster_notes"`
	VisualStyle             visualStyleBlock `json:"visual_style"`
}

type vehicleSection struct {
	Details           string `json:"details"`
	Color             string `json:"color"`
	LicensePlate      string `json:"license_plate"`
	DamageDescription string `json:"damage_description"`
}

type envSection struct {
	Location  string `json:"location"`
	Weather   string `json:"weather"`
	TimeOfDay string `json:"time_of_day"`
}

type visualStyleBlock struct {
	CameraAngle string `json:"camera_angle"`
	ArtStyle    string `json:"art_style"`
	Focus       string `json:"focus"`
}

// BuildScenePrompt は請求と表示モードから、画像モデルに渡す構造化 JSON プロンプトを構築します。
// 同じ入力に対しては常にバイト単位で同一の文字列を返します。
func BuildScenePrompt(claim domain.Claim, mode ViewMode) (string, error) {
	camera, style := ViewSpec(mode)

	p := scenePrompt{
		Task: sceneTask,
		Vehicle: vehicleSection{
			Details:           claim.VehicleSummary(),
			Color:             claim.CarDetails.Color,
			LicensePlate:      claim.CarDetails.PlateNumber,
			DamageDescription: "Must match exactly: " + claim.Description,
		},
		Environment: envSection{
			Location:  claim.Location,
			Weather:   claim.WeatherCondition,
			TimeOfDay: claim.Time,
		},
		IncidentContextFromFnol: FnolContext(claim.RawFnolData),
		AdjusterNotes:           claim.AdjusterNotes,
		VisualStyle: visualStyleBlock{
			CameraAngle: camera,
			ArtStyle:    style,
			Focus:       sceneFocus,
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// "<" や "&" を \u003c 形式にエスケープせず、そのままモデルに渡します。
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("シーンプロンプトのエンコードに失敗しました: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// FnolContext は改行を空白に置き換えたうえで、先頭 FnolContextLimit 文字で切り詰めます。
func FnolContext(raw string) string {
	flat := strings.ReplaceAll(raw, "\n", " ")
	runes := []rune(flat)
	if len(runes) <= FnolContextLimit {
		return flat
	}
	return string(runes[:FnolContextLimit])
}
