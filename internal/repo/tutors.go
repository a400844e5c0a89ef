package repo

import (
	"context"
	"database/sql"
	"errors"

	"adopet/internal/domain"
)

const tutorColumns = `id,name,phone,email,created_at,updated_at`

func (r Repo) InsertTutor(ctx context.Context, tx *sql.Tx, t domain.Tutor) error {
	_, err := r.on(tx).ExecContext(ctx, `INSERT INTO tutors(`+tutorColumns+`) VALUES (?,?,?,?,?,?)`,
		t.ID, t.Name, t.Phone, t.Email, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTutor(ctx context.Context, id string) (domain.Tutor, error) {
	var t domain.Tutor
	err := r.DB.QueryRowContext(ctx, `SELECT `+tutorColumns+` FROM tutors WHERE id=?`, id).
		Scan(&t.ID, &t.Name, &t.Phone, &t.Email, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) UpdateTutor(ctx context.Context, tx *sql.Tx, t domain.Tutor) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE tutors SET name=?, phone=?, email=?, updated_at=? WHERE id=?`,
		t.Name, t.Phone, t.Email, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TutorExists reports whether another tutor uses the phone or email.
// excludeID skips the tutor being updated.
func (r Repo) TutorExists(ctx context.Context, phone, email, excludeID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tutors WHERE (phone=? OR email=?) AND id<>?`, phone, email, excludeID).Scan(&n)
	return n > 0, err
}
