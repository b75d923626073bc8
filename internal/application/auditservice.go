package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// AuditReport lists cross-store disagreements. OrphanSecrets are secret keys
// with no owning record; DanglingRecords are records whose secret is missing.
type AuditReport struct {
	SecretCount     int
	RecordCount     int
	OrphanSecrets   []string
	DanglingRecords []model.CredentialRecord
}

// Consistent reports whether both stores agree.
func (r AuditReport) Consistent() bool {
	return len(r.OrphanSecrets) == 0 && len(r.DanglingRecords) == 0
}

// AuditService detects and repairs the disagreements the vault engine can
// leave behind after a crash or an OrphanRiskError.
type AuditService struct {
	gate    *Gate
	creds   driven.CredentialStore
	secrets driven.SecretStore
	log     *slog.Logger
}

// NewAuditService creates a new AuditService with the required dependencies.
func NewAuditService(gate *Gate, creds driven.CredentialStore, secrets driven.SecretStore, logger *slog.Logger) *AuditService {
	return &AuditService{gate: gate, creds: creds, secrets: secrets, log: logger.With("service", "audit")}
}

// Audit compares the two stores' keys.
func (s *AuditService) Audit(ctx context.Context) (*AuditReport, error) {
	var report *AuditReport
	err := s.gate.query(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.audit(ctx)
		return err
	})
	return report, err
}

// audit loads both key sets concurrently; the caller holds the gate.
func (s *AuditService) audit(ctx context.Context) (*AuditReport, error) {
	var (
		keys []string
		recs []model.CredentialRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if keys, err = s.secrets.Keys(gctx); err != nil {
			return secretErr("list", "secret keys", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recs, err = s.creds.ListAll(gctx); err != nil {
			return metadataErr("list", "credentials", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &AuditReport{SecretCount: len(keys), RecordCount: len(recs)}

	owned := make(map[string]bool, len(recs))
	for _, rec := range recs {
		owned[rec.SecretKey] = true
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
		if !owned[k] {
			report.OrphanSecrets = append(report.OrphanSecrets, k)
		}
	}
	for _, rec := range recs {
		if !present[rec.SecretKey] {
			report.DanglingRecords = append(report.DanglingRecords, rec)
		}
	}
	return report, nil
}

// PurgeOrphanSecrets deletes every secret that no record owns and returns
// how many were removed. Metadata is never touched.
func (s *AuditService) PurgeOrphanSecrets(ctx context.Context) (int, error) {
	var purged int
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		report, err := s.audit(ctx)
		if err != nil {
			return err
		}

		var errs []error
		for _, key := range report.OrphanSecrets {
			if err := s.secrets.Delete(ctx, key); err != nil && !errors.Is(err, driven.ErrSecretNotFound) {
				errs = append(errs, err)
				continue
			}
			purged++
		}
		if len(errs) > 0 {
			return secretErr("delete", fmt.Sprintf("%d orphan secrets", len(errs)), errors.Join(errs...))
		}
		return nil
	})
	if purged > 0 {
		s.log.InfoContext(ctx, "orphan secrets purged", slog.Int("purged", purged))
	}
	return purged, err
}

// AuditScheduler runs Audit on a cron schedule and logs disagreements.
type AuditScheduler struct {
	svc  *AuditService
	cron *cron.Cron
	log  *slog.Logger
}

// NewAuditScheduler parses spec (standard five-field cron or a descriptor
// such as "@hourly") and registers the audit job. Call Start to begin.
func NewAuditScheduler(svc *AuditService, spec string, logger *slog.Logger) (*AuditScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched := &AuditScheduler{
		svc:  svc,
		cron: cron.New(cron.WithParser(parser)),
		log:  logger.With("component", "audit-scheduler"),
	}
	if _, err := sched.cron.AddFunc(spec, sched.runOnce); err != nil {
		return nil, fmt.Errorf("parse audit schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Start begins running audits in the background.
func (a *AuditScheduler) Start() {
	a.cron.Start()
}

// Stop stops scheduling and waits for a running audit to finish or ctx to
// expire.
func (a *AuditScheduler) Stop(ctx context.Context) {
	done := a.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	a.log.Info("audit scheduler stopped")
}

func (a *AuditScheduler) runOnce() {
	ctx := context.Background()
	report, err := a.svc.Audit(ctx)
	if err != nil {
		a.log.ErrorContext(ctx, "scheduled audit failed", slog.Any("error", err))
		return
	}
	if report.Consistent() {
		a.log.DebugContext(ctx, "scheduled audit clean",
			slog.Int("secrets", report.SecretCount),
			slog.Int("records", report.RecordCount),
		)
		return
	}
	a.log.WarnContext(ctx, "scheduled audit found disagreements",
		slog.Int("orphan_secrets", len(report.OrphanSecrets)),
		slog.Int("dangling_records", len(report.DanglingRecords)),
	)
}
