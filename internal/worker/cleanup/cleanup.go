// Package cleanup は放置されたカート項目の自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超過したカート項目をバッチで削除する。
// 支払い済みのカート項目は支払い記録時に削除されるため、対象は未決済のもののみ。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays はカート項目のデフォルト保持日数。
const DefaultRetentionDays = 30

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CartExpiryJob は保持期間を超過したカート項目の削除ジョブ。
// 削除は冪等で、対象がない場合もエラーにならない。
type CartExpiryJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int
}

// NewCartExpiryJob は新しいCartExpiryJobを生成する。retentionDaysが0以下の場合はデフォルト値を使う。
func NewCartExpiryJob(db Executor, logger *slog.Logger, retentionDays int) *CartExpiryJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CartExpiryJob{
		db:            db,
		logger:        logger,
		RetentionDays: retentionDays,
	}
}

// Run はcreated_atがRetentionDays日前より古いカート項目を削除し、削除件数を返す。
func (j *CartExpiryJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM carts WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		j.logger.Error("カートクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return 0, fmt.Errorf("カートクリーンアップの実行に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.logger.Info("カートクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return deleted, nil
}

// Start は起動直後に1回、その後intervalごとにRunを実行する。ctxがキャンセルされるまでブロックする。
// 失敗はログに記録し、次の周期で再試行する。
func (j *CartExpiryJob) Start(ctx context.Context, interval time.Duration) {
	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *CartExpiryJob) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// エラーはRun内でログ済み
	_, _ = j.Run(ctx)
}
