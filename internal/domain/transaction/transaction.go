package transaction

import "context"

// Tx は残席の確保と予約行の書き込みをまたぐ作業単位
// ドメイン層とアプリケーション層はこの抽象だけに依存し、
// sqlx等のドライバー型には触れない
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はTxの開始点。呼び出し側はBeginで得たTxを
// 必ずCommitかRollbackで閉じる
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}
