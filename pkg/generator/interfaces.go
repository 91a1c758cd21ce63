package generator

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ContentGenerator は Gemini の GenerateContent 呼び出しを抽象化します。
// *genai.Models がこのインターフェースを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var (
	// ErrEmptyPrompt はプロンプトが空のまま生成を要求された場合のエラーです。
	ErrEmptyPrompt = errors.New("プロンプトが空です")
	// ErrNoImage はレスポンスのどの候補にもインライン画像が含まれていない場合のエラーです。
	ErrNoImage = errors.New("レスポンスに画像データが含まれていません")
	// ErrEmptyImage は検出対象の画像データが空の場合のエラーです。
	ErrEmptyImage = errors.New("画像データが空です")
	// ErrMalformedResponse はレスポンスが期待する JSON 形式でない場合のエラーです。
	ErrMalformedResponse = errors.New("レスポンスの形式が不正です")
)
