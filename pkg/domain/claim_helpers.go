package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
)

var allStatuses = []ClaimStatus{StatusReview, StatusApproved, StatusPending, StatusRejected}

// Valid は既知のステータスかどうかを返します。
func (s ClaimStatus) Valid() bool {
	return slices.Contains(allStatuses, s)
}

// ParseClaimStatus は表示文字列（大文字小文字は無視）からステータスを解決します。
func ParseClaimStatus(v string) (ClaimStatus, error) {
	for _, s := range allStatuses {
		if strings.EqualFold(string(s), strings.TrimSpace(v)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("不明なステータスです: '%s'", v)
}

// VehicleSummary は "2022 Toyota Camry" 形式の車両表記を返します。
func (c Claim) VehicleSummary() string {
	return fmt.Sprintf("%d %s %s", c.CarDetails.Year, c.CarDetails.Make, c.CarDetails.Model)
}

// Merge は patch を適用した新しい Claim を返します。レシーバは変更しません。
func (c Claim) Merge(patch ClaimPatch) Claim {
	merged := c
	if patch.RawFnolData != nil {
		merged.RawFnolData = *patch.RawFnolData
	}
	if patch.AdjusterNotes != nil {
		merged.AdjusterNotes = *patch.AdjusterNotes
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	// スライスは呼び出し元と共有しないようにコピーします。
	merged.InvolvedParties = slices.Clone(c.InvolvedParties)
	merged.EvidencePhotos = slices.Clone(c.EvidencePhotos)
	return merged
}

// IsEmpty は何も変更しないパッチかどうかを返します。
func (p ClaimPatch) IsEmpty() bool {
	return p.RawFnolData == nil && p.AdjusterNotes == nil && p.Status == nil
}

// LoadClaims は指定されたファイルパスからJSONを読み込み、請求マップを返します。
func LoadClaims(path string) (ClaimsMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("請求ファイルの読み込みに失敗しました: %w", err)
	}
	return GetClaims(data)
}

// GetClaims はJSON配列のバイト列から請求マップを構築します。
func GetClaims(claimsJSON []byte) (ClaimsMap, error) {
	var claims []Claim
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, fmt.Errorf("請求データのデコードに失敗しました: %w", err)
	}
	return BuildClaimsMap(claims)
}

// BuildClaimsMap はスライスをIDキーのマップに変換します。IDの欠落と重複はエラーです。
func BuildClaimsMap(claims []Claim) (ClaimsMap, error) {
	m := make(ClaimsMap, len(claims))
	for i, c := range claims {
		if c.ID == "" {
			return nil, fmt.Errorf("%d 件目の請求に id がありません", i+1)
		}
		if _, dup := m[c.ID]; dup {
			return nil, fmt.Errorf("請求IDが重複しています: %s", c.ID)
		}
		m[c.ID] = c
	}
	return m, nil
}

// SortedIDs は一覧表示用に昇順ソートした請求IDを返します。
func (m ClaimsMap) SortedIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
