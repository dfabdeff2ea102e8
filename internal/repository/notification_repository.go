package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pactly/pactly-api/internal/models"
	"github.com/pkg/errors"
)

// ErrDuplicateNotification is returned when an insert collides with the
// (user_id, dedupe_key) unique index. The conflict is the canonical
// "already sent" signal; the writer's pre-check is only an optimization.
var ErrDuplicateNotification = errors.New("notification already exists for dedupe key")

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ExistsByDedupeKey(ctx context.Context, userID, dedupeKey string) (bool, error)
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)
	LastCategorySendAt(ctx context.Context, userID, promiseID string, category models.NotificationCategory) (*time.Time, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

type CreateNotificationParams struct {
	UserID      string
	PromiseID   string
	Category    models.NotificationCategory
	Role        *models.PromiseRole
	Title       string
	Body        string
	CTAURL      string
	CTALabel    *string
	Priority    models.NotificationPriority
	DedupeKey   string
	DeliveredAt *time.Time
	CreatedAt   time.Time
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO notifications (id, user_id, promise_id, category, role, title, body, cta_url, cta_label, priority, dedupe_key, delivered_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, user_id, promise_id, category, role, title, body, cta_url, cta_label, priority, dedupe_key, delivered_at, read_at, created_at
	`

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		params.UserID,
		params.PromiseID,
		params.Category,
		nullableRole(params.Role),
		params.Title,
		params.Body,
		params.CTAURL,
		nullableString(params.CTALabel),
		params.Priority,
		params.DedupeKey,
		nullableTime(params.DeliveredAt),
		createdAt,
	)

	notif, err := scanNotification(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return models.Notification{}, ErrDuplicateNotification
		}
		return models.Notification{}, errors.Wrap(err, "insert notification")
	}
	return notif, nil
}

func (r *notificationRepository) ExistsByDedupeKey(ctx context.Context, userID, dedupeKey string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM notifications WHERE user_id = $1 AND dedupe_key = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, dedupeKey).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check dedupe key")
	}
	return exists, nil
}

func (r *notificationRepository) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND created_at > $2
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count notifications")
	}
	return count, nil
}

func (r *notificationRepository) LastCategorySendAt(ctx context.Context, userID, promiseID string, category models.NotificationCategory) (*time.Time, error) {
	const query = `
		SELECT MAX(created_at) FROM notifications
		WHERE user_id = $1 AND promise_id = $2 AND category = $3
	`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, userID, promiseID, category).Scan(&last); err != nil {
		return nil, errors.Wrap(err, "query last category send")
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

func (r *notificationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const query = `
		SELECT id, user_id, promise_id, category, role, title, body, cta_url, cta_label, priority, dedupe_key, delivered_at, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error) {
	const query = `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, promise_id, category, role, title, body, cta_url, cta_label, priority, dedupe_key, delivered_at, read_at, created_at
	`
	row := r.db.QueryRowContext(ctx, query, notificationID, userID)
	return scanNotification(row)
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var (
		notif       models.Notification
		role        sql.NullString
		ctaLabel    sql.NullString
		deliveredAt sql.NullTime
		readAt      sql.NullTime
	)

	if err := scanner.Scan(
		&notif.ID,
		&notif.UserID,
		&notif.PromiseID,
		&notif.Category,
		&role,
		&notif.Title,
		&notif.Body,
		&notif.CTAURL,
		&ctaLabel,
		&notif.Priority,
		&notif.DedupeKey,
		&deliveredAt,
		&readAt,
		&notif.CreatedAt,
	); err != nil {
		return models.Notification{}, err
	}

	if role.Valid {
		r := models.PromiseRole(role.String)
		notif.Role = &r
	}
	if ctaLabel.Valid {
		val := ctaLabel.String
		notif.CTALabel = &val
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		notif.DeliveredAt = &t
	}
	if readAt.Valid {
		t := readAt.Time
		notif.ReadAt = &t
	}

	return notif, nil
}

func nullableRole(role *models.PromiseRole) interface{} {
	if role == nil {
		return nil
	}
	return string(*role)
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
