package model

import "time"

type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

func (l Language) Valid() bool { return l == LanguageArabic || l == LanguageEnglish }

// Opposite returns the other supported language.
func (l Language) Opposite() Language {
	if l == LanguageArabic {
		return LanguageEnglish
	}
	return LanguageArabic
}

// Name is the English name used inside prompts.
func (l Language) Name() string {
	if l == LanguageArabic {
		return "Arabic"
	}
	return "English"
}

type JobSnapshot struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Requirements  string    `json:"requirements"`
	Skills        []string  `json:"skills"`
	IsActive      bool      `json:"is_active"`
	DeactivatesAt time.Time `json:"deactivates_at"`
}

type AgencySnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResumeAnalysis is the structured extraction of a candidate resume.
type ResumeAnalysis struct {
	CandidateID     string   `json:"candidate_id"`
	CandidateName   string   `json:"candidate_name"`
	Email           string   `json:"email"`
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Highlights      []string `json:"highlights"`
}

// InterviewResources is the frozen context that grounds every generated question
// for one credential.
type InterviewResources struct {
	CredentialID      string         `json:"credential_id"`
	Language          Language       `json:"language"`
	Job               JobSnapshot    `json:"job"`
	Agency            AgencySnapshot `json:"agency"`
	Resume            ResumeAnalysis `json:"resume"`
	PreparedQuestions []string       `json:"prepared_questions"`
	CreatedAt         time.Time      `json:"created_at"`
}

// UnusedQuestions returns prepared questions not yet asked in the ledger.
func (r *InterviewResources) UnusedQuestions(l TurnLedger) []string {
	out := make([]string, 0, len(r.PreparedQuestions))
	for _, q := range r.PreparedQuestions {
		if !l.Asked(q) {
			out = append(out, q)
		}
	}
	return out
}

// InterviewContext is everything reachable from a credential.
type InterviewContext struct {
	Invitation Invitation
	Job        JobSnapshot
	Agency     AgencySnapshot
	Resume     ResumeAnalysis
}
