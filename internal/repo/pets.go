package repo

import (
	"context"
	"database/sql"
	"errors"

	"adopet/internal/domain"
)

const petColumns = `id,shelter_id,type,name,breed,age,color,weight,adopted,created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (domain.Pet, error) {
	var p domain.Pet
	var adopted int
	err := row.Scan(&p.ID, &p.ShelterID, &p.Type, &p.Name, &p.Breed, &p.Age, &p.Color, &p.Weight, &adopted, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	p.Adopted = adopted != 0
	return p, err
}

func (r Repo) InsertPet(ctx context.Context, tx *sql.Tx, p domain.Pet) error {
	_, err := r.on(tx).ExecContext(ctx, `INSERT INTO pets(`+petColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.ShelterID, string(p.Type), p.Name, p.Breed, p.Age, p.Color, p.Weight, boolInt(p.Adopted), p.CreatedAt)
	return err
}

func (r Repo) GetPet(ctx context.Context, id string) (domain.Pet, error) {
	return scanPet(r.DB.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id=?`, id))
}

// MarkPetAdopted flags the pet so it no longer shows as available.
func (r Repo) MarkPetAdopted(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE pets SET adopted=1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListPetsByShelter(ctx context.Context, shelterID string) ([]domain.Pet, error) {
	return r.listPets(ctx, `WHERE shelter_id=?`, shelterID)
}

// ListAvailablePets returns pets that were not adopted yet.
func (r Repo) ListAvailablePets(ctx context.Context) ([]domain.Pet, error) {
	return r.listPets(ctx, `WHERE adopted=0`)
}

func (r Repo) listPets(ctx context.Context, where string, args ...any) ([]domain.Pet, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+petColumns+` FROM pets `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
