// Package ratelimit は固定ウィンドウ方式のリクエストレート制限を提供する。
//
// 状態はプロセス内のマップのみで保持し、永続化しない。
// プロセス再起動での喪失は許容される（悪用対策であり課金台帳ではない）。
// 複数プロセスへの水平スケール時は外部カウンタストアへの移行が必要となる。
package ratelimit

import (
	"sync"
	"time"
)

// Result はレート制限チェックの結果を表す。
type Result struct {
	Allowed   bool      // このリクエストを許可するか
	Remaining int       // 現在のウィンドウ内の残リクエスト数（下限0）
	ResetAt   time.Time // 現在のウィンドウのリセット時刻
}

// entry はキーごとのウィンドウ状態。
// countは上限超過後もインクリメントし続ける（クランプしない）。
// 超過幅の観測を可能にするための仕様。
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter は固定ウィンドウのレート制限器。
// 時刻源を注入可能にしてテスト容易性を確保する。
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	stopCh  chan struct{}
}

// New は新しいLimiterを生成する。
// nowがnilの場合はtime.Nowを使用する。
func New(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		entries: make(map[string]*entry),
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Check はキーに対するリクエストを記録し、許可可否を返す。
// キーのエントリが存在しない、または現在時刻がリセット時刻を過ぎている場合は
// 新しいウィンドウを開始する（count=1、必ず許可）。
// それ以外はカウントをインクリメントし、上限以内なら許可する。
// 読み取りから書き込みまでをロック内の単一ステップで行う。
func (l *Limiter) Check(key string, limit int, window time.Duration) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		resetAt := now.Add(window)
		l.entries[key] = &entry{count: 1, resetAt: resetAt}
		return Result{
			Allowed:   true,
			Remaining: max(0, limit-1),
			ResetAt:   resetAt,
		}
	}

	e.count++
	return Result{
		Allowed:   e.count <= limit,
		Remaining: max(0, limit-e.count),
		ResetAt:   e.resetAt,
	}
}

// StartSweep はバックグラウンドで期限切れエントリを定期削除するゴルーチンを起動する。
// キー数が中程度であれば必須ではないが、長期稼働時のメモリ増加を抑える。
func (l *Limiter) StartSweep(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop はスイープのバックグラウンドゴルーチンを停止する。
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// sweep はリセット時刻を過ぎたエントリを削除する。
func (l *Limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()
}

// EntryCount は現在保持しているエントリ数を返す。テストおよびメトリクス用。
func (l *Limiter) EntryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
