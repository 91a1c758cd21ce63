package cache

import (
	gocache "github.com/patrickmn/go-cache"
)

// Store は請求IDをキーとするプロセス内キャッシュです。
// 有効期限・件数上限はなく、エントリは Set による上書きか Delete/Reset でのみ消えます。
type Store[V any] struct {
	items *gocache.Cache
}

// New は期限なし・クリーンアップなしの Store を生成します。
func New[V any]() *Store[V] {
	// cleanupInterval に 0 以下を渡すと janitor は起動しません。
	return &Store[V]{items: gocache.New(gocache.NoExpiration, 0)}
}

// Get は claimID の値を返します。2番目の戻り値が false の場合は未登録です。
// ゼロ値が保存されている場合も true を返すため、未登録と区別できます。
func (s *Store[V]) Get(claimID string) (V, bool) {
	var zero V
	v, found := s.items.Get(claimID)
	if !found {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set は claimID の値を上書き保存します。
func (s *Store[V]) Set(claimID string, value V) {
	s.items.Set(claimID, value, gocache.NoExpiration)
}

// Delete は claimID のエントリを削除します。
func (s *Store[V]) Delete(claimID string) {
	s.items.Delete(claimID)
}

// Reset は全エントリを削除します。テスト間の分離に使います。
func (s *Store[V]) Reset() {
	s.items.Flush()
}

// Len は保存されているエントリ数を返します。
func (s *Store[V]) Len() int {
	return s.items.ItemCount()
}
