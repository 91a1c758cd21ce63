package domain

// ClaimStatus は請求の審査状況です。値はコンソールの表示文字列と一致します。
type ClaimStatus string

const (
	StatusReview   ClaimStatus = "In Review"
	StatusApproved ClaimStatus = "Approved"
	StatusPending  ClaimStatus = "Pending Info"
	StatusRejected ClaimStatus = "Rejected"
)

// IncidentType は事故の種別です。
type IncidentType string

const (
	IncidentCollision IncidentType = "Collision"
	IncidentTheft     IncidentType = "Theft"
	IncidentWeather   IncidentType = "Weather Damage"
	IncidentVandalism IncidentType = "Vandalism"
	IncidentFire      IncidentType = "Fire"
)

// Coordinates は事故現場の緯度経度です。
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Person は契約者・目撃者・運転者などの関係者です。
type Person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"` // Policy Holder / Witness / Driver / Third Party
	AvatarURL string `json:"avatarUrl"`
}

// Coverage は保険契約の補償内容です。
type Coverage struct {
	PolicyType     string  `json:"policyType"`
	Deductible     float64 `json:"deductible"`
	CoverageLimit  float64 `json:"coverageLimit"`
	MonthlyPremium float64 `json:"monthlyPremium"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
}

// CarDetails は対象車両の情報です。
type CarDetails struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber"`
	VIN         string `json:"vin"`
	Trim        string `json:"trim"`
	Drivetrain  string `json:"drivetrain"`
	Mileage     int    `json:"mileage"`
}

// Claim は1件の保険請求レコードです。
// 値として扱い、更新は Merge による部分更新のみで行います。
type Claim struct {
	ID               string       `json:"id"`
	PolicyNumber     string       `json:"policyNumber"`
	Holder           Person       `json:"holder"`
	Date             string       `json:"date"`
	Time             string       `json:"time"`
	Location         string       `json:"location"`
	Coordinates      Coordinates  `json:"coordinates"`
	Type             IncidentType `json:"type"`
	Status           ClaimStatus  `json:"status"`
	Description      string       `json:"description"`
	DamageEstimate   float64      `json:"damageEstimate"`
	WeatherCondition string       `json:"weatherCondition"`
	Temperature      float64      `json:"temperature"`
	InvolvedParties  []Person     `json:"involvedParties"`
	CarDetails       CarDetails   `json:"carDetails"`
	Coverage         Coverage     `json:"coverage"`
	ScenePrompt      string       `json:"scenePrompt"`

	// GeneratedImage は事前に用意されたシーン画像（data URI または URL）です。
	GeneratedImage string `json:"generatedImage,omitempty"`

	// RawFnolData は FNOL（事故受付）時の書き起こしテキストです。
	RawFnolData    string   `json:"rawFnolData"`
	AdjusterNotes  string   `json:"adjusterNotes"`
	EvidencePhotos []string `json:"evidencePhotos"`
}

// ClaimPatch は Claim の部分更新です。nil のフィールドは変更しません。
type ClaimPatch struct {
	RawFnolData   *string      `json:"rawFnolData,omitempty"`
	AdjusterNotes *string      `json:"adjusterNotes,omitempty"`
	Status        *ClaimStatus `json:"status,omitempty"`
}

// ClaimsMap は請求IDをキーとした検索用マップです。
type ClaimsMap map[string]Claim
