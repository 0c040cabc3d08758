package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.InterviewSessionRepository = (*interviewSessionRepo)(nil)

type interviewSessionRepo struct {
	pool *pgxpool.Pool
}

func NewInterviewSessionRepo(pool *pgxpool.Pool) *interviewSessionRepo {
	return &interviewSessionRepo{pool: pool}
}

const sessionColumns = `id, credential_id, invitation_id, agency_id, job_id, candidate_id,
       language, status, ledger, chunk_namespace, last_group, created_at, updated_at, ended_at`

func (r *interviewSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.InterviewSession) (*model.InterviewSession, bool, error) {
	ledger, err := json.Marshal(s.Ledger)
	if err != nil {
		return nil, false, fmt.Errorf("marshal ledger: %w", err)
	}
	const q = `
INSERT INTO interview_sessions (` + sessionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (credential_id) DO NOTHING
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q,
		s.ID, s.CredentialID, s.InvitationID, s.AgencyID, s.JobID, s.CandidateID,
		string(s.Language), string(s.Status), string(ledger), s.ChunkNamespace, s.LastGroup, s.CreatedAt, s.UpdatedAt, s.EndedAt)
	if err != nil {
		return nil, false, err
	}
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, ferr := r.FindByCredential(ctx, tx, s.CredentialID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	return s, true, nil
}

func (r *interviewSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	ledger, err := json.Marshal(s.Ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	const q = `
UPDATE interview_sessions
   SET agency_id=$2, language=$3, status=$4, ledger=$5, last_group=$6, updated_at=$7, ended_at=$8
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.AgencyID, string(s.Language), string(s.Status), string(ledger), s.LastGroup, s.UpdatedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *interviewSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *interviewSessionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id=$1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *interviewSessionRepo) FindByCredential(ctx context.Context, tx repository.Tx, credentialID string) (*model.InterviewSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE credential_id=$1;`
	return r.queryOne(ctx, tx, q, credentialID)
}

func (r *interviewSessionRepo) CountPostponed(ctx context.Context, tx repository.Tx, candidateID, jobID string) (int, error) {
	const q = `
SELECT COUNT(*) FROM interview_sessions
 WHERE candidate_id=$1 AND job_id=$2 AND status='postponed';`
	row, err := pickRow(ctx, r.pool, tx, q, candidateID, jobID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *interviewSessionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.InterviewSession, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	var (
		s            model.InterviewSession
		language     string
		status       string
		ledger       []byte
		agency, cand *string
	)
	if err := row.Scan(&s.ID, &s.CredentialID, &s.InvitationID, &agency, &s.JobID, &cand,
		&language, &status, &ledger, &s.ChunkNamespace, &s.LastGroup, &s.CreatedAt, &s.UpdatedAt, &s.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if agency != nil {
		s.AgencyID = *agency
	}
	if cand != nil {
		s.CandidateID = *cand
	}
	s.Language = model.Language(language)
	s.Status = model.InterviewStatus(status)
	if len(ledger) > 0 {
		if err := json.Unmarshal(ledger, &s.Ledger); err != nil {
			return nil, fmt.Errorf("decode ledger of %s: %w", s.ID, err)
		}
	}
	if s.Ledger == nil {
		s.Ledger = model.TurnLedger{}
	}
	return &s, nil
}
