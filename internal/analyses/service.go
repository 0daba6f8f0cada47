package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/apperr"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

const (
	opAnalyze = "analyses.analyze"

	recordTimeout = 5 * time.Second
)

// Service runs the analysis pipeline: extract, build the prompt, call the
// backend, validate the reply.
type Service struct {
	LLM     llm.Client
	Runs    RunRepo
	Tracker *Tracker
	Model   string
}

// NewService wires a Service with a fresh session tracker.
func NewService(client llm.Client, runs RunRepo, model string) *Service {
	return &Service{
		LLM:     client,
		Runs:    runs,
		Tracker: NewTracker(),
		Model:   model,
	}
}

// Status returns the state of the session's latest invocation.
func (s *Service) Status(sessionKey string) Status {
	return s.tracker().Get(sessionKey)
}

// Analyze runs one invocation for the session. Invalid and unsupported inputs
// are rejected before any state change. A second call while the session has
// one in flight fails with Busy.
func (s *Service) Analyze(ctx context.Context, in Input) (result Result, err error) {
	if err := validateInput(in); err != nil {
		metrics.IncAnalysisRejected()
		telemetry.Info("analysis.rejected", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"source":     string(in.Source),
			"media_type": extract.NormalizeMediaType(in.MediaType),
			"error_kind": string(apperr.KindOf(err)),
		})
		return Result{}, err
	}

	tracker := s.tracker()
	runID := uuid.NewString()
	if err := tracker.Begin(in.SessionKey, runID); err != nil {
		telemetry.Warn("analysis.busy", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"run_id":     runID,
		})
		return Result{}, err
	}

	startedAt := time.Now().UTC()
	run := Run{
		ID:          runID,
		SessionHash: util.HashSessionKey(in.SessionKey),
		SourceKind:  string(in.Source),
		Model:       s.Model,
		CreatedAt:   startedAt,
	}
	if in.Source == SourceFile {
		run.MediaType = extract.NormalizeMediaType(in.MediaType)
	}
	metrics.IncAnalysisStarted()
	s.logTransition(ctx, run, StateIdle, StateExtracting, 0)

	state := StateExtracting
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Wrap(apperr.Internal, opAnalyze, fmt.Errorf("panic: %v", r))
			result = Result{}
			s.fail(ctx, in.SessionKey, run, state, startedAt, err)
		}
	}()

	text, err := s.extractText(ctx, in)
	if err != nil {
		s.fail(ctx, in.SessionKey, run, state, startedAt, err)
		return Result{}, err
	}

	if err := tracker.Advance(in.SessionKey, runID, StateAnalyzing); err != nil {
		telemetry.Error("analysis.state_error", map[string]any{"run_id": runID, "error": err.Error()})
	}
	s.logTransition(ctx, run, StateExtracting, StateAnalyzing, 0)
	state = StateAnalyzing

	req := llm.BuildAnalysisRequest(text, in.JobDescription)
	run.PromptHash = req.Hash()
	raw, err := s.send(ctx, req)
	if err != nil {
		s.fail(ctx, in.SessionKey, run, state, startedAt, err)
		return Result{}, err
	}

	result, err = ParseResult(raw)
	if err != nil {
		telemetry.Warn("analysis.invalid_reply", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"run_id":     runID,
			"error_kind": string(apperr.KindOf(err)),
			"reply":      apperr.Snippet(raw),
		})
		s.fail(ctx, in.SessionKey, run, state, startedAt, err)
		return Result{}, err
	}

	if err := tracker.Advance(in.SessionKey, runID, StateSucceeded); err != nil {
		telemetry.Error("analysis.state_error", map[string]any{"run_id": runID, "error": err.Error()})
	}
	run.Status = StateSucceeded
	run.DurationMs = durationMs(startedAt, time.Now().UTC())
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(run.DurationMs)
	s.logTransition(ctx, run, StateAnalyzing, StateSucceeded, run.DurationMs)
	s.record(ctx, run)
	return result, nil
}

// RunsForSession lists the recorded invocations of a session, newest first.
func (s *Service) RunsForSession(ctx context.Context, sessionKey string, limit int) ([]Run, error) {
	if s.Runs == nil {
		return []Run{}, nil
	}
	return s.Runs.ListBySession(ctx, util.HashSessionKey(sessionKey), limit)
}

func (s *Service) extractText(ctx context.Context, in Input) (string, error) {
	var (
		res extract.Result
		err error
	)
	if in.Source == SourceText {
		res, err = extract.FromText(in.ResumeText)
	} else {
		res, err = extract.ExtractReader(ctx, in.File, in.MediaType, in.FileName)
	}
	if err != nil {
		return "", err
	}
	telemetry.Info("analysis.extracted", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"media_type": res.MediaType,
		"pages":      res.Pages,
		"chars":      len([]rune(res.Text)),
	})
	return res.Text, nil
}

func (s *Service) send(ctx context.Context, req llm.Request) (string, error) {
	if s.LLM == nil {
		return "", apperr.New(apperr.MissingCredentials, opAnalyze, "no analysis backend configured")
	}
	raw, err := s.LLM.Send(ctx, req)
	if err != nil {
		var classified *apperr.Error
		if errors.As(err, &classified) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", apperr.Transport(opAnalyze, 0, err.Error(), err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", apperr.New(apperr.MalformedBackendResponse, opAnalyze, "empty reply")
	}
	return raw, nil
}

func (s *Service) fail(ctx context.Context, session string, run Run, from State, startedAt time.Time, err error) {
	if moveErr := s.tracker().Fail(session, run.ID, err); moveErr != nil {
		telemetry.Error("analysis.state_error", map[string]any{"run_id": run.ID, "error": moveErr.Error()})
	}
	kind := string(apperr.KindOf(err))
	run.Status = StateFailed
	run.ErrorKind = kind
	run.DurationMs = durationMs(startedAt, time.Now().UTC())
	metrics.IncAnalysisFailed(kind)
	metrics.ObserveAnalysisDurationMs(run.DurationMs)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            run.ID,
		"status":            string(StateFailed),
		"status_transition": string(from) + "->" + string(StateFailed),
		"error_kind":        kind,
		"error":             apperr.Snippet(err.Error()),
		"duration_ms":       run.DurationMs,
	})
	s.record(ctx, run)
}

// record persists the run summary. A store failure never changes the outcome.
func (s *Service) record(ctx context.Context, run Run) {
	if s.Runs == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.Runs.Record(recordCtx, run); err != nil {
		telemetry.Error("analysis.record_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"run_id":     run.ID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) logTransition(ctx context.Context, run Run, from, to State, duration float64) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            run.ID,
		"source":            run.SourceKind,
		"status":            string(to),
		"status_transition": string(from) + "->" + string(to),
	}
	if duration > 0 {
		fields["duration_ms"] = duration
	}
	telemetry.Info("analysis.status", fields)
}

func (s *Service) tracker() *Tracker {
	if s.Tracker == nil {
		s.Tracker = NewTracker()
	}
	return s.Tracker
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
