package domain

// BoundingBox は 0〜1 に正規化された矩形です。
type BoundingBox struct {
	YMin float64 `json:"ymin"`
	XMin float64 `json:"xmin"`
	YMax float64 `json:"ymax"`
	XMax float64 `json:"xmax"`
}

// DamageRegion は画像内で検出された損傷箇所です。
type DamageRegion struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Box         BoundingBox `json:"box"`
	Confidence  float64     `json:"confidence"`
	Description string      `json:"description,omitempty"`
}
