package repo

import (
	"context"
	"database/sql"

	"adopet/internal/domain"
)

const notificationColumns = `id,kind,adoption_id,tutor_id,tutor_email,shelter_id,shelter_email,subject,body,attempts,last_error,created_at,delivered_at`

func scanNotification(row rowScanner) (domain.Notification, error) {
	var n domain.Notification
	var tutorID, tutorEmail, lastError, deliveredAt sql.NullString
	if err := row.Scan(&n.ID, &n.Kind, &n.AdoptionID, &tutorID, &tutorEmail, &n.ShelterID, &n.ShelterEmail,
		&n.Subject, &n.Body, &n.Attempts, &lastError, &n.CreatedAt, &deliveredAt); err != nil {
		return n, err
	}
	n.TutorID = tutorID.String
	n.TutorEmail = tutorEmail.String
	n.LastError = lastError.String
	n.DeliveredAt = stringPtr(deliveredAt)
	return n, nil
}

// InsertNotification enqueues n and returns its id.
func (r Repo) InsertNotification(ctx context.Context, tx *sql.Tx, n domain.Notification) (int64, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO notifications(kind,adoption_id,tutor_id,tutor_email,shelter_id,shelter_email,subject,body,attempts,created_at) VALUES (?,?,?,?,?,?,?,?,0,?)`,
		n.Kind, n.AdoptionID, nullable(n.TutorID), nullable(n.TutorEmail), n.ShelterID, n.ShelterEmail, n.Subject, n.Body, n.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PendingNotifications returns undelivered notifications that still have
// attempts left, in enqueue order.
func (r Repo) PendingNotifications(ctx context.Context, limit, maxAttempts int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE delivered_at IS NULL AND attempts < ? ORDER BY id ASC LIMIT ?`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r Repo) ListNotifications(ctx context.Context, adoptionID string) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	var args []any
	if adoptionID != "" {
		query += ` WHERE adoption_id=?`
		args = append(args, adoptionID)
	}
	rows, err := r.DB.QueryContext(ctx, query+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func collectNotifications(rows *sql.Rows) ([]domain.Notification, error) {
	var res []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) MarkNotificationDelivered(ctx context.Context, id int64, ts string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET delivered_at=?, attempts=attempts+1, last_error=NULL WHERE id=?`, ts, id)
	return err
}

func (r Repo) MarkNotificationFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET attempts=attempts+1, last_error=? WHERE id=?`, reason, id)
	return err
}
