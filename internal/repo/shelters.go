package repo

import (
	"context"
	"database/sql"
	"errors"

	"adopet/internal/domain"
)

const shelterColumns = `id,name,phone,email,created_at`

func scanShelter(row *sql.Row) (domain.Shelter, error) {
	var s domain.Shelter
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) InsertShelter(ctx context.Context, tx *sql.Tx, s domain.Shelter) error {
	_, err := r.on(tx).ExecContext(ctx, `INSERT INTO shelters(`+shelterColumns+`) VALUES (?,?,?,?,?)`,
		s.ID, s.Name, s.Phone, s.Email, s.CreatedAt)
	return err
}

func (r Repo) GetShelter(ctx context.Context, id string) (domain.Shelter, error) {
	return scanShelter(r.DB.QueryRowContext(ctx, `SELECT `+shelterColumns+` FROM shelters WHERE id=?`, id))
}

func (r Repo) GetShelterByName(ctx context.Context, name string) (domain.Shelter, error) {
	return scanShelter(r.DB.QueryRowContext(ctx, `SELECT `+shelterColumns+` FROM shelters WHERE name=?`, name))
}

// ShelterExists reports whether any shelter already uses the name, phone or email.
func (r Repo) ShelterExists(ctx context.Context, name, phone, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM shelters WHERE name=? OR phone=? OR email=?`, name, phone, email).Scan(&n)
	return n > 0, err
}

func (r Repo) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+shelterColumns+` FROM shelters ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Shelter
	for rows.Next() {
		var s domain.Shelter
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
