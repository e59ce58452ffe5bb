package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用した購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

const subscriberColumns = `id, email, status, email_confirmed, email_confirmed_at, subscribed_at, unsubscribed_at, created_at, updated_at`

// scanSubscriber は1行を*model.Subscriberに読み取る。
func scanSubscriber(row interface{ Scan(...any) error }) (*model.Subscriber, error) {
	s := &model.Subscriber{}
	err := row.Scan(
		&s.ID, &s.Email, &s.Status, &s.EmailConfirmed, &s.EmailConfirmedAt,
		&s.SubscribedAt, &s.UnsubscribedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID は指定IDの購読者を取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の取得に失敗しました: %w", err)
	}
	return s, nil
}

// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによる購読者の検索に失敗しました: %w", err)
	}
	return s, nil
}

// Create は購読者を作成する。メールアドレスの一意制約違反はそのまま返す。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, s *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (`+subscriberColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Email, s.Status, s.EmailConfirmed, s.EmailConfirmedAt,
		s.SubscribedAt, s.UnsubscribedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は購読者のステータスと各タイムスタンプを上書き更新する。
func (r *PostgresSubscriberRepo) Update(ctx context.Context, s *model.Subscriber) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscribers
		 SET status = $2, email_confirmed = $3, email_confirmed_at = $4,
		     subscribed_at = $5, unsubscribed_at = $6, updated_at = $7
		 WHERE id = $1`,
		s.ID, s.Status, s.EmailConfirmed, s.EmailConfirmedAt,
		s.SubscribedAt, s.UnsubscribedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("購読者の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("購読者が見つかりません: %s", s.ID)
	}
	return nil
}

// List は全購読者を購読日時降順で返す。
func (r *PostgresSubscriberRepo) List(ctx context.Context) ([]*model.Subscriber, error) {
	return r.list(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY subscribed_at DESC`)
}

// ListEligible は配信対象（ACTIVEかつメール確認済み）の購読者を返す。
// WHERE句の条件はmodel.Subscriber.Eligibleと一致させること。
func (r *PostgresSubscriberRepo) ListEligible(ctx context.Context) ([]*model.Subscriber, error) {
	return r.list(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers
		 WHERE status = 'ACTIVE' AND email_confirmed = true
		 ORDER BY subscribed_at ASC`)
}

func (r *PostgresSubscriberRepo) list(ctx context.Context, query string) ([]*model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("購読者行の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読者一覧の走査に失敗しました: %w", err)
	}
	return subs, nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
