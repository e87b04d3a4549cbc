package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/bbsman/internal/model"
)

// PostgresVoteRepo はPostgreSQLを使用した投票リポジトリ。
// カウンタとリレーションの整合を保つため、遷移の適用は
// 必ず単一トランザクションで行う。
type PostgresVoteRepo struct {
	db *sql.DB
}

// NewPostgresVoteRepo はPostgresVoteRepoを生成する。
func NewPostgresVoteRepo(db *sql.DB) *PostgresVoteRepo {
	return &PostgresVoteRepo{db: db}
}

// GetState は(ユーザー, 対象)の現在の投票状態を返す。
// リレーション行が存在しない場合はVoteNoneを返す。
func (r *PostgresVoteRepo) GetState(ctx context.Context, userID string, targetType model.TargetType, targetID string) (model.VoteState, error) {
	var state model.VoteState
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM votes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
		userID, targetType, targetID,
	).Scan(&state)

	if err == sql.ErrNoRows {
		return model.VoteNone, nil
	}
	if err != nil {
		return model.VoteNone, fmt.Errorf("failed to get vote state: %w", err)
	}

	return state, nil
}

// Apply は投票状態の遷移とカウンタ増減を同一トランザクションで適用する。
// リレーション行はUPSERTし、対象エンティティのカウンタへ差分を加算する。
func (r *PostgresVoteRepo) Apply(ctx context.Context, userID string, targetType model.TargetType, targetID string, newState model.VoteState, upDelta, downDelta int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO votes (id, user_id, target_type, target_id, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 ON CONFLICT (user_id, target_type, target_id)
		 DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		uuid.New().String(), userID, targetType, targetID, newState,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}

	if upDelta != 0 || downDelta != 0 {
		table, err := counterTable(targetType)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET upvotes = upvotes + $1, downvotes = downvotes + $2
			 WHERE id = $3 AND deleted_at IS NULL`,
			upDelta, downDelta, targetID,
		)
		if err != nil {
			return fmt.Errorf("failed to update vote counters: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// 事前確認と適用の間に対象が削除されたケース
			return fmt.Errorf("%w: %s %s", ErrVoteTargetGone, targetType, targetID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// counterTable は対象種別に対応するカウンタ保持テーブル名を返す。
// SQLに連結するため、列挙外の値は拒否する。
func counterTable(targetType model.TargetType) (string, error) {
	switch targetType {
	case model.TargetPost:
		return "posts", nil
	case model.TargetComment:
		return "comments", nil
	default:
		return "", fmt.Errorf("unknown target type: %s", targetType)
	}
}

// FindByUser はユーザーの有効な投票（VoteNone以外）を返す。
func (r *PostgresVoteRepo) FindByUser(ctx context.Context, userID string) ([]*model.Vote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, target_type, target_id, state, created_at, updated_at
		 FROM votes WHERE user_id = $1 AND state <> 'none'
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []*model.Vote
	for rows.Next() {
		vote := &model.Vote{}
		if err := rows.Scan(&vote.ID, &vote.UserID, &vote.TargetType, &vote.TargetID,
			&vote.State, &vote.CreatedAt, &vote.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}

	return votes, nil
}

// compile-time interface check
var _ VoteRepository = (*PostgresVoteRepo)(nil)
