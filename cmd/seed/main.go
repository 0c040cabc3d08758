package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"ai-interview-engine/internal/config"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
	pg "ai-interview-engine/internal/infra/db/postgres"
	"ai-interview-engine/internal/infra/security"
)

// Seeds one agency, job and invitation and prints a working access link.
// Intended for local manual testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	language := flag.String("lang", "en", "invitation language: en | ar | empty to detect")
	reset := flag.Bool("reset", false, "truncate interview tables first")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if *reset {
		_, err = pool.Exec(ctx, `
			TRUNCATE inbox_notifications, interview_sessions, interview_resources,
			         access_credentials, resume_analyses, invitations, jobs, agencies
			RESTART IDENTITY CASCADE`)
		if err != nil {
			log.Fatalf("reset: %v", err)
		}
		fmt.Println("interview tables truncated")
	}

	agencyID, jobID, invitationID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	candidateID := uuid.NewString()
	deactivates := time.Now().Add(14 * 24 * time.Hour)

	tm := pg.NewTxManager(pool)
	creds := pg.NewCredentialRepo(pool)
	cred := model.NewAccessCredential(uuid.NewString(), invitationID, cfg.Interview.CredentialTTL)

	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		db, ok := tx.(pgx.Tx)
		if !ok {
			return fmt.Errorf("unexpected tx %T", tx)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO agencies (id, name, description) VALUES ($1, $2, $3)`,
			agencyID, "Acme Talent", "Recruiting for product engineering teams."); err != nil {
			return fmt.Errorf("agency: %w", err)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO jobs (id, agency_id, title, description, requirements, skills, deactivates_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			jobID, agencyID, "Backend Engineer",
			"Build and operate the services behind our hiring platform.",
			"3+ years with Go or a similar language; SQL; production on-call experience.",
			[]string{"go", "postgres", "redis"}, deactivates); err != nil {
			return fmt.Errorf("job: %w", err)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO invitations (id, agency_id, job_id, candidate_id, candidate_name, candidate_email, language)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			invitationID, agencyID, jobID, candidateID, "Sara Haddad", "sara@example.com", *language); err != nil {
			return fmt.Errorf("invitation: %w", err)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO resume_analyses (candidate_id, job_id, summary, skills, experience_years, highlights)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			candidateID, jobID, "Backend developer focused on payments infrastructure.",
			[]string{"go", "kafka", "postgres"}, 4.5, []string{"Led a ledger migration"}); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		return creds.Create(ctx, tx, cred)
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	signer, err := security.NewTokenSigner(devSecret(cfg.Security.TokenSecret))
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}
	token, err := signer.Mint(cred.ID, invitationID, cred.ExpiresAt)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}

	fmt.Printf("invitation %s (job %s, lang %q)\n", invitationID, jobID, *language)
	fmt.Printf("credential %s expires %s\n", cred.ID, cred.ExpiresAt.Format(time.RFC3339))
	if base := cfg.Interview.AccessLinkBaseURL; base != "" {
		u, err := url.Parse(base)
		if err == nil {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
			fmt.Println(u.String())
			return
		}
	}
	fmt.Println(token)
}

// devSecret mirrors the fallback cmd/app uses with -dev.
func devSecret(s string) string {
	if s == "" {
		return "dev-only-token-secret-0123456789ab"
	}
	return s
}
