package generator

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// imagePrefixRegex は検出前に取り除く data URI の接頭辞です。
var imagePrefixRegex = regexp.MustCompile(`^data:image/(png|jpeg|jpg);base64,`)

// FormatDataURI は data:<mimeType>;base64,<payload> 形式の文字列を返します。
// mimeType が空なら DefaultMimeType を使います。
func FormatDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// StripImagePrefix は既知の画像 data URI 接頭辞を取り除き、base64 部分と MIME タイプを返します。
// 接頭辞が無い場合は入力をそのまま base64 として扱い、MIME は DefaultMimeType になります。
func StripImagePrefix(image string) (payload string, mimeType string) {
	loc := imagePrefixRegex.FindStringSubmatchIndex(image)
	if loc == nil {
		return image, DefaultMimeType
	}
	sub := image[loc[2]:loc[3]]
	if sub == "jpg" {
		sub = "jpeg"
	}
	return image[loc[1]:], "image/" + sub
}

// DecodeDataURI は data URI を MIME タイプとバイト列に分解します。
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("data URI ではありません")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI にペイロードがありません")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("base64 以外の data URI には対応していません")
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}
