package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.InvitationRepository = (*invitationRepo)(nil)

// invitationRepo reads the job, agency and resume analysis owned by the
// surrounding platform. It never writes to those tables.
type invitationRepo struct {
	pool *pgxpool.Pool
}

func NewInvitationRepo(pool *pgxpool.Pool) *invitationRepo {
	return &invitationRepo{pool: pool}
}

func (r *invitationRepo) FindContext(ctx context.Context, tx repository.Tx, invitationID string) (*model.InterviewContext, error) {
	const q = `
SELECT i.id, i.agency_id, i.job_id, i.candidate_id,
       COALESCE(i.candidate_name, ''), COALESCE(i.candidate_email, ''), COALESCE(i.language, ''),
       j.title, COALESCE(j.description, ''), COALESCE(j.requirements, ''), COALESCE(j.skills, '{}'),
       j.is_active, j.deactivates_at,
       a.name, COALESCE(a.description, ''),
       COALESCE(ra.summary, ''), COALESCE(ra.skills, '{}'), COALESCE(ra.experience_years, 0),
       COALESCE(ra.highlights, '{}')
  FROM invitations i
  JOIN jobs j ON j.id = i.job_id
  JOIN agencies a ON a.id = i.agency_id
  LEFT JOIN resume_analyses ra ON ra.candidate_id = i.candidate_id AND ra.job_id = i.job_id
 WHERE i.id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, invitationID)
	if err != nil {
		return nil, err
	}
	var (
		c    model.InterviewContext
		lang string
	)
	inv, job, ag, res := &c.Invitation, &c.Job, &c.Agency, &c.Resume
	if err := row.Scan(
		&inv.ID, &inv.AgencyID, &inv.JobID, &inv.CandidateID,
		&inv.CandidateName, &inv.CandidateEmail, &lang,
		&job.Title, &job.Description, &job.Requirements, &job.Skills,
		&job.IsActive, &job.DeactivatesAt,
		&ag.Name, &ag.Description,
		&res.Summary, &res.Skills, &res.ExperienceYears, &res.Highlights,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	inv.Language = model.Language(lang)
	job.ID = inv.JobID
	ag.ID = inv.AgencyID
	res.CandidateID = inv.CandidateID
	res.CandidateName = inv.CandidateName
	res.Email = inv.CandidateEmail
	return &c, nil
}
