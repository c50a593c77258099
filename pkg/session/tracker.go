// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ggloop/playguard/pkg/observer"
	"github.com/ggloop/playguard/pkg/tamper"

	"github.com/sirupsen/logrus"
)

// syntheticForcedStop is the process name recorded for the sample appended
// on an explicit stop request.
const syntheticForcedStop = "<forced-stop>"

// Starter obtains a session id from the remote ledger. It must be safe to
// call again after a failure: the tracker stays Idle and retries on the
// next tick until a confirmed id is returned.
type Starter interface {
	StartSession(ctx context.Context, startedAt time.Time) (string, error)
}

// Reporter delivers the final session report. Implementations own the
// bounded retry/backoff policy; a returned error means delivery failed
// after retries. Errors carrying Permanent() == true mark protocol
// rejections that can never succeed on resend.
type Reporter interface {
	ReportEnd(ctx context.Context, report Report) error
}

// PendingQueue persists reports that could not be delivered, for resend on
// next app launch.
type PendingQueue interface {
	Enqueue(report Report) error
}

// FatalScanner checks a process snapshot for fatal tamper signals. It is
// run on every sampling tick so fatal tooling ends the session within one
// tick of appearing.
type FatalScanner interface {
	ScanFatal(processes []string) []tamper.Reason
}

// AssessFunc computes the finalization tamper assessment. The wiring layer
// binds it to the detector plus the account's suspicion store; it must not
// fail — store errors degrade to zero-signal inputs, never abort a session.
type AssessFunc func(ctx context.Context, sess *Session, processes []string, now time.Time) tamper.Assessment

// Events receives tracker lifecycle callbacks. Callbacks run on the tick
// goroutine and must not call back into the tracker.
type Events interface {
	OnGameDetected(game string)
	OnGameClosed(game string)
	OnTamperFlag(a tamper.Assessment)
}

// NopEvents is an Events implementation that ignores everything.
type NopEvents struct{}

func (NopEvents) OnGameDetected(string)          {}
func (NopEvents) OnGameClosed(string)            {}
func (NopEvents) OnTamperFlag(tamper.Assessment) {}

// Config holds the tracker's tunables.
type Config struct {
	// TrackedGames is the versioned allow-list of game-client names.
	TrackedGames []string
	// GracePeriod is how long the game may stay out of foreground before
	// an idle warning is recorded (alt-tab tolerance).
	GracePeriod time.Duration
	// VerifiedRatioFloor marks reports below it as low-confidence. The
	// point-award decision on such reports belongs to the remote ledger.
	VerifiedRatioFloor float64
}

// Tracker is the session lifecycle state machine. It is the sole mutator of
// its Session; ticks arrive from a single sampling loop and Stop/Status may
// be called from other goroutines.
type Tracker struct {
	cfg      Config
	starter  Starter
	reporter Reporter
	queue    PendingQueue
	scanner  FatalScanner
	assess   AssessFunc
	events   Events

	mu           sync.Mutex
	sess         *Session
	absentSince  time.Time
	gapWarned    bool
	lastSnapshot []string
}

// NewTracker wires a tracker. All collaborators are required except events,
// which defaults to NopEvents.
func NewTracker(cfg Config, starter Starter, reporter Reporter, queue PendingQueue, scanner FatalScanner, assess AssessFunc, events Events) *Tracker {
	if events == nil {
		events = NopEvents{}
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = 60 * time.Second
	}
	if cfg.VerifiedRatioFloor == 0 {
		cfg.VerifiedRatioFloor = 0.5
	}
	return &Tracker{
		cfg:      cfg,
		starter:  starter,
		reporter: reporter,
		queue:    queue,
		scanner:  scanner,
		assess:   assess,
		events:   events,
	}
}

// HandleTick consumes one observer sample. All errors are handled inside
// and logged; a failed tick never propagates, a missed tick is acceptable
// but a crashed tracker is not.
func (t *Tracker) HandleTick(ctx context.Context, sample observer.Sample, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sess == nil {
		t.tickIdle(ctx, sample, now)
		return
	}
	t.tickActive(ctx, sample, now)
}

// tickIdle opens a session when a tracked game reaches the foreground. The
// session id request is idempotent: on failure the tracker stays Idle and
// retries on the next tick; Active is never entered without a confirmed id.
func (t *Tracker) tickIdle(ctx context.Context, sample observer.Sample, now time.Time) {
	game, ok := observer.ForegroundGame(sample, t.cfg.TrackedGames)
	if !ok {
		return
	}

	id, err := t.starter.StartSession(ctx, now)
	if err != nil {
		logrus.Warnf("session start request failed, staying idle until next tick: %v", err)
		return
	}

	t.sess = &Session{
		ID:        id,
		Game:      game,
		StartedAt: now,
		State:     StateActive,
	}
	t.absentSince = time.Time{}
	t.gapWarned = false
	t.appendSample(now, sample.ForegroundProcess, true)
	t.rememberSnapshot(sample)

	logrus.Infof("session %s started for game %s", id, game)
	t.events.OnGameDetected(game)
}

// tickActive appends the sample and advances the grace-period and
// finalization logic.
func (t *Tracker) tickActive(ctx context.Context, sample observer.Sample, now time.Time) {
	if !sample.OK {
		// Sensor hiccup: counts as a non-game sample but is no evidence of
		// absence or exit, so the grace window does not advance.
		t.appendSample(now, "", false)
		return
	}

	_, isGame := observer.MatchTrackedGame(sample.ForegroundProcess, []string{t.sess.Game})
	t.appendSample(now, sample.ForegroundProcess, isGame)
	t.rememberSnapshot(sample)

	// Fatal tooling ends the session within the same tick it appears. The
	// session is still reported, truthfully; enforcement is the ledger's
	// decision.
	if reasons := t.scanner.ScanFatal(sample.Processes); len(reasons) > 0 {
		logrus.Warnf("fatal tamper signal mid-session %s: %v", t.sess.ID, reasons)
		t.finalize(ctx, now, "tamper")
		return
	}

	if isGame {
		t.absentSince = time.Time{}
		t.gapWarned = false
		return
	}

	if !observer.GameRunning(sample, t.sess.Game) {
		logrus.Infof("game process %s exited, ending session %s", t.sess.Game, t.sess.ID)
		t.finalize(ctx, now, "game_exit")
		return
	}

	// Game still running but not foreground: tolerate alt-tabbing up to the
	// grace period, then record one idle warning per continuous gap.
	if t.absentSince.IsZero() {
		t.absentSince = now
		return
	}
	if !t.gapWarned && now.Sub(t.absentSince) > t.cfg.GracePeriod {
		t.sess.IdleWarnings++
		t.gapWarned = true
		logrus.Debugf("idle warning %d for session %s (foreground lost for %v)",
			t.sess.IdleWarnings, t.sess.ID, now.Sub(t.absentSince))
	}
}

// Stop ends any active session on explicit user/app request. A synthetic
// forced-stop sample is appended before finalization.
func (t *Tracker) Stop(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sess == nil {
		return
	}

	t.appendSample(now, syntheticForcedStop, false)
	logrus.Infof("forced stop requested for session %s", t.sess.ID)
	t.finalize(ctx, now, "forced_stop")
}

// finalize drives Active -> Ending -> Ended|Aborted. The sample sequence is
// frozen, aggregates computed, the tamper assessment attached, and the end
// report delivered. Delivery failure after bounded retries persists the
// report to the durable queue instead of discarding it.
func (t *Tracker) finalize(ctx context.Context, now time.Time, cause string) {
	sess := t.sess
	sess.State = StateEnding
	ended := now
	sess.EndedAt = &ended

	assessment := t.assess(ctx, sess, t.lastSnapshot, now)
	if assessment.Classification == tamper.Flagged {
		t.events.OnTamperFlag(assessment)
	}

	report := t.buildReport(sess, assessment, now)
	logrus.Infof("ending session %s: cause=%s duration=%.0fs ratio=%.2f classification=%s",
		sess.ID, cause, report.DurationSeconds, report.VerifiedRatio, assessment.Classification)

	switch err := t.reporter.ReportEnd(ctx, report); {
	case err == nil:
		sess.State = StateEnded
		logrus.Infof("session %s acknowledged by ledger", sess.ID)

	case isPermanentDeliveryError(err):
		// A rejected report cannot succeed on resend; abort without retry.
		sess.State = StateAborted
		logrus.Errorf("session %s rejected by ledger, aborting without resend: %v", sess.ID, err)

	default:
		sess.State = StateAborted
		if qErr := t.queue.Enqueue(report); qErr != nil {
			// Unrecoverable local error: log full detail for support.
			logrus.Errorf("session %s unreachable ledger AND queue append failed, report lost: deliver=%v queue=%v report=%+v",
				sess.ID, err, qErr, report)
		} else {
			logrus.Warnf("session %s queued for resend after delivery failure: %v", sess.ID, err)
		}
	}

	t.events.OnGameClosed(sess.Game)

	// Terminal sessions are immutable; clear in-memory state so the next
	// tick starts from Idle with a fresh Session.
	t.sess = nil
	t.absentSince = time.Time{}
	t.gapWarned = false
}

func (t *Tracker) buildReport(sess *Session, assessment tamper.Assessment, now time.Time) Report {
	ratio := sess.VerifiedRatio()
	return Report{
		SessionID:        sess.ID,
		Game:             sess.Game,
		StartedAt:        sess.StartedAt,
		EndedAt:          *sess.EndedAt,
		DurationSeconds:  sess.Duration(now).Seconds(),
		WindowCount:      sess.TotalSamples,
		GameProcessCount: sess.GameProcessSamples,
		IdleWarnings:     sess.IdleWarnings,
		VerifiedRatio:    ratio,
		LowConfidence:    sess.TotalSamples > 0 && ratio < t.cfg.VerifiedRatioFloor,
		Assessment:       assessment,
		Timestamp:        now,
	}
}

func (t *Tracker) appendSample(now time.Time, processName string, isGame bool) {
	t.sess.Samples = append(t.sess.Samples, WindowSample{
		Timestamp:     now,
		ProcessName:   processName,
		IsTrackedGame: isGame,
	})
	t.sess.TotalSamples++
	if isGame {
		t.sess.GameProcessSamples++
	}
}

func (t *Tracker) rememberSnapshot(sample observer.Sample) {
	if sample.OK {
		t.lastSnapshot = sample.Processes
	}
}

// Status returns a read-only snapshot for the IPC surface.
func (t *Tracker) Status() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sess == nil {
		return Summary{State: StateIdle.String()}
	}

	started := t.sess.StartedAt
	return Summary{
		SessionID:          t.sess.ID,
		Game:               t.sess.Game,
		State:              t.sess.State.String(),
		StartedAt:          &started,
		DurationSeconds:    time.Since(started).Seconds(),
		TotalSamples:       t.sess.TotalSamples,
		GameProcessSamples: t.sess.GameProcessSamples,
		IdleWarnings:       t.sess.IdleWarnings,
		VerifiedRatio:      t.sess.VerifiedRatio(),
	}
}

// permanentError is implemented by delivery errors that can never succeed
// on resend (protocol-level rejections).
type permanentError interface {
	Permanent() bool
}

func isPermanentDeliveryError(err error) bool {
	var p permanentError
	return errors.As(err, &p) && p.Permanent()
}
