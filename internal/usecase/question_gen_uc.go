package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/lang"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/logging"
	"ai-interview-engine/internal/infra/metrics"
)

// Compile-time check
var _ QuestionGenerator = (*questionGenUC)(nil)

type QuestionGenerator interface {
	// GenerateNext always yields a question; upstream failures fall back to
	// a prepared or canned question. Inputs are never mutated.
	GenerateNext(ctx context.Context, res *model.InterviewResources, ledger model.TurnLedger) string
	// GeneratePreparedQuestions builds the question bank for a snapshot.
	GeneratePreparedQuestions(ctx context.Context, res *model.InterviewResources) ([]string, error)
}

type QuestionGenConfig struct {
	Model           string
	NextTimeout     time.Duration
	PreparedTimeout time.Duration
	MaxPromptTokens int
	PreparedCount   int
}

type questionGenUC struct {
	ai     adapter.AIServiceAdapter
	bundle *i18n.Bundle
	cfg    QuestionGenConfig
	log    *zerolog.Logger
}

func NewQuestionGenerator(ai adapter.AIServiceAdapter, bundle *i18n.Bundle, cfg QuestionGenConfig, logger *zerolog.Logger) *questionGenUC {
	if cfg.NextTimeout <= 0 {
		cfg.NextTimeout = 5 * time.Second
	}
	if cfg.PreparedTimeout <= 0 {
		cfg.PreparedTimeout = 30 * time.Second
	}
	if cfg.PreparedCount <= 0 {
		cfg.PreparedCount = 8
	}
	l := logger.With().Str("component", "question_gen").Logger()
	return &questionGenUC{ai: ai, bundle: bundle, cfg: cfg, log: &l}
}

func (g *questionGenUC) chatWithin(ctx context.Context, d time.Duration, msgs []adapter.Message) (string, error) {
	return within(ctx, d, func(ctx context.Context) (string, error) {
		return g.ai.Chat(ctx, g.cfg.Model, msgs)
	})
}

func (g *questionGenUC) GenerateNext(ctx context.Context, res *model.InterviewResources, ledger model.TurnLedger) string {
	language := res.Language
	unused := res.UnusedQuestions(ledger)
	msgs := g.fitPrompt(ctx, func(turns []model.TurnEntry) []adapter.Message {
		return nextQuestionPrompt(res, turns, unused)
	}, ledger.Turns())

	reply, err := g.chatWithin(ctx, g.cfg.NextTimeout, msgs)
	if err != nil {
		g.log.Warn().Err(err).Str("language", string(language)).Msg("next question generation failed; using fallback")
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			return g.canned(language, "timeout")
		}
		return g.fallback(language, "error", unused)
	}

	q := firstQuestion(reply)
	switch {
	case q == "":
		return g.fallback(language, "empty", unused)
	case !lang.Matches(q, language):
		g.log.Warn().Str("language", string(language)).Str("reply", logging.Truncate(q, 80)).Msg("next question in wrong script")
		return g.fallback(language, "script", unused)
	case ledger.Asked(q):
		return g.fallback(language, "repeat", unused)
	}
	return q
}

// fallback prefers the next unused prepared question over the canned line.
func (g *questionGenUC) fallback(language model.Language, reason string, unused []string) string {
	if len(unused) > 0 {
		metrics.IncQuestionFallback(string(language), reason)
		return unused[0]
	}
	return g.canned(language, reason)
}

// canned is the fixed fallback question of the language.
func (g *questionGenUC) canned(language model.Language, reason string) string {
	metrics.IncQuestionFallback(string(language), reason)
	return g.bundle.T(string(language), "fallback_question")
}

func (g *questionGenUC) GeneratePreparedQuestions(ctx context.Context, res *model.InterviewResources) ([]string, error) {
	language := res.Language
	log := g.log.With().Str("language", string(language)).Str("job_id", res.Job.ID).Logger()

	questions, err := g.preparedAttempt(ctx, preparedQuestionsPrompt(res, g.cfg.PreparedCount, false))
	if err != nil {
		log.Warn().Err(err).Msg("prepared questions unavailable; continuing with an empty bank")
		return nil, nil
	}
	if len(questions) == 0 {
		log.Warn().Msg("prepared questions response was empty or unparseable")
		return nil, nil
	}
	check := lang.CheckBatch(questions, language)
	if check.Passed() {
		return g.keepMatching(questions, language), nil
	}
	metrics.IncLanguageMismatch(string(language), "1")
	log.Warn().Int("failed", check.Failed).Int("total", check.Total).Msg("prepared questions failed script check; retrying strictly")

	questions, err = g.preparedAttempt(ctx, preparedQuestionsPrompt(res, g.cfg.PreparedCount, true))
	if err != nil {
		return nil, fmt.Errorf("%w: retry failed: %v", domain.ErrLanguageMismatch, err)
	}
	check = lang.CheckBatch(questions, language)
	if !check.Passed() {
		metrics.IncLanguageMismatch(string(language), "2")
		return nil, fmt.Errorf("%w: %d of %d questions off-language", domain.ErrLanguageMismatch, check.Failed, check.Total)
	}
	return g.keepMatching(questions, language), nil
}

func (g *questionGenUC) preparedAttempt(ctx context.Context, msgs []adapter.Message) ([]string, error) {
	reply, err := g.chatWithin(ctx, g.cfg.PreparedTimeout, msgs)
	if err != nil {
		return nil, err
	}
	qs, err := extractJSONPayload(reply)
	if err != nil {
		g.log.Debug().Err(err).Msg("prepared questions payload not decodable")
		return nil, nil
	}
	return qs, nil
}

// keepMatching drops the few off-script questions a passing batch may carry
// and caps the bank size.
func (g *questionGenUC) keepMatching(qs []string, language model.Language) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		if lang.Matches(q, language) {
			out = append(out, q)
		}
		if len(out) == g.cfg.PreparedCount {
			break
		}
	}
	return out
}

// fitPrompt drops the oldest turns until the prompt fits MaxPromptTokens.
// Counting errors leave the prompt untouched.
func (g *questionGenUC) fitPrompt(ctx context.Context, build func([]model.TurnEntry) []adapter.Message, turns []model.TurnEntry) []adapter.Message {
	msgs := build(turns)
	if g.cfg.MaxPromptTokens <= 0 {
		return msgs
	}
	for len(turns) > 0 {
		n, err := g.ai.CountTokens(ctx, g.cfg.Model, msgs)
		if err != nil || n <= g.cfg.MaxPromptTokens {
			return msgs
		}
		turns = turns[1:]
		msgs = build(turns)
	}
	return msgs
}

// firstQuestion accepts either plain text or the JSON shapes the bank uses.
func firstQuestion(reply string) string {
	if qs, err := extractJSONPayload(reply); err == nil && len(qs) > 0 {
		return qs[0]
	}
	q := strings.TrimSpace(stripFences(reply))
	q = strings.Trim(q, "\"'“”«»")
	return strings.TrimSpace(q)
}

func nextQuestionPrompt(res *model.InterviewResources, turns []model.TurnEntry, unused []string) []adapter.Message {
	var b strings.Builder
	writeContext(&b, res)
	b.WriteString("\nInterview so far:\n")
	if len(turns) == 0 {
		b.WriteString("(no questions asked yet)\n")
	}
	for i, t := range turns {
		answer := t.Answer
		if answer == "" {
			answer = "(awaiting answer)"
		}
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, t.Question, answer)
	}
	if len(unused) > 0 {
		b.WriteString("\nPrepared questions not yet asked (you may use or adapt one):\n")
		for _, q := range unused {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nWrite the next interview question.")

	return []adapter.Message{
		{Role: "system", Content: interviewerInstruction(res)},
		{Role: "user", Content: b.String()},
	}
}

func preparedQuestionsPrompt(res *model.InterviewResources, n int, strict bool) []adapter.Message {
	var b strings.Builder
	writeContext(&b, res)
	fmt.Fprintf(&b, "\nPrepare %d interview questions tailored to this candidate and job. "+
		"Finish with one question about salary expectations.\n", n)
	b.WriteString(`Respond with JSON only: {"questions": ["..."]}`)

	system := interviewerInstruction(res)
	if strict {
		system += fmt.Sprintf(" Output only %s. Every question must be written entirely in %s script; do not mix languages.",
			res.Language.Name(), res.Language.Name())
	}
	return []adapter.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: b.String()},
	}
}

func interviewerInstruction(res *model.InterviewResources) string {
	return fmt.Sprintf("You are a professional interviewer at %s hiring for the %s role. "+
		"Conduct the interview in %s. Ask exactly one concise question at a time, never repeat a question, "+
		"and reply with the question text only.",
		nonEmpty(res.Agency.Name, "the company"), nonEmpty(res.Job.Title, "open"), res.Language.Name())
}

func writeContext(b *strings.Builder, res *model.InterviewResources) {
	fmt.Fprintf(b, "Job title: %s\n", res.Job.Title)
	if res.Job.Description != "" {
		fmt.Fprintf(b, "Job description: %s\n", res.Job.Description)
	}
	if res.Job.Requirements != "" {
		fmt.Fprintf(b, "Requirements: %s\n", res.Job.Requirements)
	}
	if len(res.Job.Skills) > 0 {
		fmt.Fprintf(b, "Required skills: %s\n", strings.Join(res.Job.Skills, ", "))
	}
	if res.Agency.Description != "" {
		fmt.Fprintf(b, "About the company: %s\n", res.Agency.Description)
	}
	r := res.Resume
	if r.Summary != "" {
		fmt.Fprintf(b, "Candidate summary: %s\n", r.Summary)
	}
	if len(r.Skills) > 0 {
		fmt.Fprintf(b, "Candidate skills: %s\n", strings.Join(r.Skills, ", "))
	}
	if r.ExperienceYears > 0 {
		fmt.Fprintf(b, "Years of experience: %.1f\n", r.ExperienceYears)
	}
	for _, h := range r.Highlights {
		fmt.Fprintf(b, "Highlight: %s\n", h)
	}
}

func nonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
