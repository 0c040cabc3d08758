package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/lang"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
)

// Compile-time check
var _ ResourceUseCase = (*resourceUC)(nil)

type ResourceUseCase interface {
	// Ensure returns the snapshot for cred, building it on first use and
	// rebuilding it when the resolved language changed.
	Ensure(ctx context.Context, cred *model.AccessCredential, ictx *model.InterviewContext) (*model.InterviewResources, error)
	Get(ctx context.Context, credentialID string) (*model.InterviewResources, error)
}

type resourceUC struct {
	repo repository.InterviewResourcesRepository
	gen  QuestionGenerator
	log  *zerolog.Logger
}

func NewResourceUseCase(repo repository.InterviewResourcesRepository, gen QuestionGenerator, logger *zerolog.Logger) *resourceUC {
	l := logger.With().Str("component", "resources").Logger()
	return &resourceUC{repo: repo, gen: gen, log: &l}
}

// ResolveLanguage uses the invitation's preferred language, else the script
// of the job description and title.
func ResolveLanguage(ictx *model.InterviewContext) model.Language {
	if l := ictx.Invitation.Language; l.Valid() {
		return l
	}
	return lang.Detect(ictx.Job.Title + " " + ictx.Job.Description)
}

func (u *resourceUC) Ensure(ctx context.Context, cred *model.AccessCredential, ictx *model.InterviewContext) (*model.InterviewResources, error) {
	language := ResolveLanguage(ictx)

	existing, err := u.repo.FindByCredential(ctx, repository.NoTX, cred.ID)
	switch {
	case err == nil && existing.Language == language:
		return existing, nil
	case err == nil:
		u.log.Info().Str("credential_id", cred.ID).
			Str("from", string(existing.Language)).Str("to", string(language)).
			Msg("language changed; rebuilding resources")
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	res := &model.InterviewResources{
		CredentialID: cred.ID,
		Language:     language,
		Job:          ictx.Job,
		Agency:       ictx.Agency,
		Resume:       ictx.Resume,
		CreatedAt:    time.Now(),
	}
	qs, err := u.gen.GeneratePreparedQuestions(ctx, res)
	if err != nil {
		return nil, err
	}
	res.PreparedQuestions = qs
	if err := u.repo.Save(ctx, repository.NoTX, res); err != nil {
		return nil, err
	}
	u.log.Info().Str("credential_id", cred.ID).Str("language", string(language)).
		Int("prepared", len(qs)).Msg("interview resources stored")
	return res, nil
}

func (u *resourceUC) Get(ctx context.Context, credentialID string) (*model.InterviewResources, error) {
	return u.repo.FindByCredential(ctx, repository.NoTX, credentialID)
}
