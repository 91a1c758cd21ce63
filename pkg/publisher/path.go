package publisher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
// ファイル名にディレクトリ区切りを含めることはできません。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if fileName == "" || strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
		return "", fmt.Errorf("無効なファイル名です: '%s'", fileName)
	}
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ResolveRelativePath は baseDir から見た target の相対パスを返します。
// 相対化できない場合は target をそのまま返すのだ。
func ResolveRelativePath(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
