// Package cleanup は論理削除済みレコードの物理削除ジョブを提供する。
// 保持期間（デフォルト30日）を超えて論理削除されたままのコメントと投稿を
// 日次バッチで物理削除する。外部キー制約のため、コメントを先に削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Metrics は物理削除件数の記録先。
type Metrics interface {
	RecordCleanupPurged(count int)
}

// CleanupJob は保持期間を超過した論理削除済みレコードの物理削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	metrics       Metrics
	RetentionDays int // 論理削除からの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は30日。metricsはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics Metrics) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		metrics:       metrics,
		RetentionDays: 30,
	}
}

// purgeTargets は物理削除の対象テーブル。コメントは投稿を親に持つため先に消す。
var purgeTargets = []string{"comments", "posts"}

// Run は保持期間を超過した論理削除済みレコードを物理削除する。
// deleted_atがRetentionDays日前より古い行をテーブルごとにDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	var total int64
	for _, table := range purgeTargets {
		query := fmt.Sprintf(
			`DELETE FROM %s WHERE deleted_at IS NOT NULL AND deleted_at < now() - $1::interval`,
			table,
		)
		result, err := j.db.ExecContext(ctx, query, interval)
		if err != nil {
			j.logger.Error("クリーンアップジョブの実行に失敗しました",
				slog.String("error", err.Error()),
				slog.String("table", table),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("%sのクリーンアップに失敗: %w", table, err)
		}

		purged, err := result.RowsAffected()
		if err != nil {
			j.logger.Error("削除件数の取得に失敗しました",
				slog.String("error", err.Error()),
				slog.String("table", table),
			)
			return fmt.Errorf("削除件数の取得に失敗: %w", err)
		}
		total += purged
	}

	if j.metrics != nil {
		j.metrics.RecordCleanupPurged(int(total))
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("purged_count", total),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
