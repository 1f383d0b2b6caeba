package services

import (
	"context"
	"time"

	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/metrics"
	"github.com/nicuwatch/nicudash/internal/pkg/validator"
)

// AlarmActionProcessor implements alarm.ActionProcessor.
// It is the only writer of alarm rows; every transition goes through one ApplyAtomically call.
type AlarmActionProcessor struct {
	repo      alarm.Repository
	events    alarm.EventPublisher
	validator *validator.Validator
	logger    *logger.Logger
	silence   alarm.SilencePolicy
	now       func() time.Time
}

// NewAlarmActionProcessor creates a new alarm action processor
func NewAlarmActionProcessor(
	repo alarm.Repository,
	events alarm.EventPublisher,
	val *validator.Validator,
	log *logger.Logger,
	silence alarm.SilencePolicy,
) alarm.ActionProcessor {
	return &AlarmActionProcessor{
		repo:      repo,
		events:    events,
		validator: val,
		logger:    log,
		silence:   silence,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply validates the request and executes it as one unit of work.
// Unknown or non-updatable ids are skipped and reported, never fatal.
func (p *AlarmActionProcessor) Apply(ctx context.Context, actor *alarm.Actor, req alarm.ActionRequest) (*alarm.ActionResult, error) {
	if actor == nil {
		return nil, errors.Unauthenticated("Authentication required")
	}

	if violations := p.validate(req); len(violations) > 0 {
		return nil, errors.ValidationError("Invalid alarm action", violations)
	}

	ids := alarm.UniqueIDs(req.AlarmIDs)
	batch := alarm.NewActionBatch(*actor, req.Action, ids, req.SilenceSeconds(p.silence.Default), p.now())
	return p.execute(ctx, req.Action, string(req.Action), batch)
}

func (p *AlarmActionProcessor) validate(req alarm.ActionRequest) []validator.ValidationError {
	violations := p.validator.Validate(req)
	if req.Action == alarm.ActionSilence && req.SilenceDuration != nil {
		if v := p.validator.ValidateField("silenceDuration", *req.SilenceDuration, p.silence.Tag()); v != nil {
			violations = append(violations, *v)
		}
	}
	return validator.Merge(req.Malformed, violations)
}

// ExpireSilences returns every silenced alarm whose silence ended at or before now to active.
func (p *AlarmActionProcessor) ExpireSilences(ctx context.Context, now time.Time) (int, error) {
	ids, err := p.repo.ListExpiredSilences(ctx, now)
	if err != nil {
		p.logger.ErrorWithErr(err, "Failed to list expired silences")
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := p.execute(ctx, alarm.Action(alarm.AuditActionUnsilence), alarm.AuditActionUnsilence, alarm.NewExpiryBatch(ids, now))
	if err != nil {
		return 0, err
	}
	metrics.RecordSilencesExpired(res.Processed)
	return res.Processed, nil
}

// ResolvePatientAlarms resolves every open alarm of a discharged patient.
func (p *AlarmActionProcessor) ResolvePatientAlarms(ctx context.Context, actor *alarm.Actor, patientID int64) (*alarm.ActionResult, error) {
	if actor == nil {
		return nil, errors.Unauthenticated("Authentication required")
	}

	ids, err := p.repo.ListOpenIDsByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &alarm.ActionResult{Action: alarm.ActionResolve, Alarms: []*alarm.Alarm{}}, nil
	}

	batch := alarm.NewDischargeBatch(*actor, patientID, ids, p.now())
	return p.execute(ctx, alarm.ActionResolve, alarm.ReasonDischarge, batch)
}

func (p *AlarmActionProcessor) execute(ctx context.Context, action alarm.Action, label string, batch *alarm.Batch) (*alarm.ActionResult, error) {
	log := p.logger.WithFields(map[string]interface{}{
		"action":    label,
		"user_id":   batch.Actor.UserID,
		"requested": len(batch.AlarmIDs),
	})

	start := time.Now()
	updated, err := p.repo.ApplyAtomically(ctx, batch)
	if err != nil {
		log.ErrorWithErr(err, "Alarm batch failed")
		return nil, err
	}

	missing := alarm.MissingIDs(batch.AlarmIDs, updated)
	metrics.RecordAlarmBatch(label, len(updated), len(missing), time.Since(start))

	if len(missing) > 0 {
		log.With("missing_ids", missing).Warn("Alarm ids skipped: not found or not updatable")
	}
	log.With("processed", len(updated)).Info("Alarm batch applied")

	if len(updated) > 0 {
		p.publish(ctx, alarm.ActionEvent{
			Action:    label,
			AlarmIDs:  alarmIDs(updated),
			UserID:    batch.Actor.UserID,
			Processed: len(updated),
			At:        batch.At,
		})
	}

	return &alarm.ActionResult{
		Action:    action,
		Alarms:    updated,
		Processed: len(updated),
		Missing:   missing,
	}, nil
}

// publish never fails the caller; the batch has already committed.
func (p *AlarmActionProcessor) publish(ctx context.Context, event alarm.ActionEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, event); err != nil {
		p.logger.With("action", event.Action).ErrorWithErr(err, "Failed to publish alarm event")
	}
}

func alarmIDs(alarms []*alarm.Alarm) []int64 {
	ids := make([]int64, len(alarms))
	for i, a := range alarms {
		ids[i] = a.ID
	}
	return ids
}
