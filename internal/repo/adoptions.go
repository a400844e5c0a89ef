package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"adopet/internal/domain"
)

const adoptionColumns = `id,pet_id,tutor_id,reason,status,justification,created_at,evaluated_at`

type AdoptionFilters struct {
	Status  domain.AdoptionStatus
	PetID   string
	TutorID string
	Limit   int
}

func scanAdoption(row rowScanner) (domain.Adoption, error) {
	var a domain.Adoption
	var justification, evaluatedAt sql.NullString
	err := row.Scan(&a.ID, &a.PetID, &a.TutorID, &a.Reason, &a.Status, &justification, &a.CreatedAt, &evaluatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if justification.Valid {
		a.Justification = justification.String
	}
	a.EvaluatedAt = stringPtr(evaluatedAt)
	return a, nil
}

func (r Repo) InsertAdoption(ctx context.Context, tx *sql.Tx, a domain.Adoption) error {
	_, err := r.on(tx).ExecContext(ctx, `INSERT INTO adoptions(`+adoptionColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, a.PetID, a.TutorID, a.Reason, string(a.Status), nullable(a.Justification), a.CreatedAt, nullableStringPtr(a.EvaluatedAt))
	return err
}

func (r Repo) GetAdoption(ctx context.Context, id string) (domain.Adoption, error) {
	return scanAdoption(r.DB.QueryRowContext(ctx, `SELECT `+adoptionColumns+` FROM adoptions WHERE id=?`, id))
}

// TransitionAdoption persists a's new status only if the stored row still
// has status from. A lost race reports domain.ErrIllegalTransition.
func (r Repo) TransitionAdoption(ctx context.Context, tx *sql.Tx, a domain.Adoption, from domain.AdoptionStatus) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE adoptions SET status=?, justification=?, evaluated_at=? WHERE id=? AND status=?`,
		string(a.Status), nullable(a.Justification), nullableStringPtr(a.EvaluatedAt), a.ID, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetAdoption(ctx, a.ID); err != nil {
			return err
		}
		return domain.ErrIllegalTransition
	}
	return nil
}

// ListAdoptions returns every adoption matching f, oldest first.
func (r Repo) ListAdoptions(ctx context.Context, f AdoptionFilters) ([]domain.Adoption, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(f.Status))
	}
	if f.PetID != "" {
		clauses = append(clauses, "pet_id=?")
		args = append(args, f.PetID)
	}
	if f.TutorID != "" {
		clauses = append(clauses, "tutor_id=?")
		args = append(args, f.TutorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + adoptionColumns + ` FROM adoptions ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Adoption
	for rows.Next() {
		a, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) FindAdoptionsByPetAndStatus(ctx context.Context, petID string, status domain.AdoptionStatus) ([]domain.Adoption, error) {
	return r.ListAdoptions(ctx, AdoptionFilters{PetID: petID, Status: status})
}

func (r Repo) FindAdoptionsByTutorAndStatus(ctx context.Context, tutorID string, status domain.AdoptionStatus) ([]domain.Adoption, error) {
	return r.ListAdoptions(ctx, AdoptionFilters{TutorID: tutorID, Status: status})
}

// CountAdoptions returns the number of stored adoptions.
func (r Repo) CountAdoptions(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM adoptions`).Scan(&n)
	return n, err
}
