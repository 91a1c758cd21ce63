package prompts

// ViewMode はシーン生成時のカメラ／画風プリセットです。
type ViewMode string

const (
	ViewSchematic2D ViewMode = "2D Schematic"
	ViewAerialDrone ViewMode = "Aerial Drone"
	ViewIsometric3D ViewMode = "Isometric 3D"
	ViewStreetLevel ViewMode = "Street Level"

	// DefaultViewMode はコンソール初期表示時のモードです。
	DefaultViewMode = ViewSchematic2D
)

const (
	fallbackCamera = "High-angle top-down aerial drone view"
	fallbackStyle  = "Photorealistic 3D Render"
)

type viewSpec struct {
	camera string
	style  string
}

var viewSpecs = map[ViewMode]viewSpec{
	ViewIsometric3D: {
		camera: "Isometric view, 45-degree angle from above",
		style:  "3D clay render, clean, minimal, studio lighting, pastel colors, high fidelity 3D art. Clean composition, no text overlays.",
	},
	ViewStreetLevel: {
		camera: "Eye-level or Dashcam view, street level",
		style:  "Photorealistic, slightly grainy, CCTV style, real world lighting, raw footage. Authentic look.",
	},
	ViewSchematic2D: {
		camera: "Strict Top-down Orthographic view (Bird's Eye).",
		style:  "Technical architectural blueprint, clean white background, black vector lines with minimal shading. NO text overlays, NO labels, NO measurements, NO data boxes. Purely visual accident diagram. Use Hot Pink (#ff0083) only to highlight the damaged area of the vehicle.",
	},
	ViewAerialDrone: {
		camera: "High-angle top-down aerial drone view, showing the car and immediate surroundings from above (Eagle Eye)",
		style:  "8k resolution, Unreal Engine 5, Raytracing, hyper-realistic, dramatic lighting, detailed textures, photorealistic. Clear view of road markings and environment.",
	},
}

// AllViewModes は選択可能なモードを表示順で返します。
func AllViewModes() []ViewMode {
	return []ViewMode{ViewSchematic2D, ViewAerialDrone, ViewIsometric3D, ViewStreetLevel}
}

// Known は定義済みのモードかどうかを返します。
func (m ViewMode) Known() bool {
	_, ok := viewSpecs[m]
	return ok
}

// ViewSpec はモード名の完全一致でカメラ指定と画風指定を返します。
// 未知のモードはドローン視点＋フォトリアルの既定ペアになります。
func ViewSpec(mode ViewMode) (camera string, style string) {
	spec, ok := viewSpecs[mode]
	if !ok {
		return fallbackCamera, fallbackStyle
	}
	return spec.camera, spec.style
}
