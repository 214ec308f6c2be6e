package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/jwulff/scribe/internal/db"
	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/extract"
	"github.com/jwulff/scribe/internal/recognizer"
	"github.com/jwulff/scribe/internal/report"
	"github.com/jwulff/scribe/internal/transcript"
)

// Extractor turns a transcript into a structured result.
type Extractor interface {
	Extract(ctx context.Context, req extract.Request) (*extract.Result, error)
}

// Files is the persisted file layout used by a session.
type Files interface {
	TranscriptPath(t time.Time, sessionID string) string
	WriteTranscript(path, text string) error
	ReadTranscript(path string) (string, error)
	SaveResult(v any, t time.Time, sessionID string) (string, error)
}

// Journal records session starts and outcomes. Failures are logged only.
type Journal interface {
	InsertSession(sess db.Session) error
	FinishSession(id string, out db.Outcome) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Recognizer recognizer.Recognizer
	Extractor  Extractor
	Renderer   report.Renderer
	Files      Files
	Journal    Journal // optional

	// Preflight checks credentials and environment before a start.
	Preflight func() error

	StopTimeout  time.Duration // bounded wait for the recognizer on stop, default 5s
	TickInterval time.Duration // elapsed-time updates, default 1s
	Now          func() time.Time
}

// StartRequest names who the session is for.
type StartRequest struct {
	Doctor      doctor.Doctor
	PatientName string
}

// Controller is the session state machine. All transitions happen under mu;
// the reconciler is owned by a single consumer goroutine per session.
type Controller struct {
	deps    Deps
	updates chan Update
	ctx     context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	state State
	sess  *Session
	run   *run
}

// run holds the goroutine plumbing of one session.
type run struct {
	sess   Session
	cancel context.CancelFunc // stops the recognizer

	stopReq  chan struct{} // closed by Stop
	stopTick chan struct{} // closed when leaving recording
	tickDone chan struct{} // ticker exited; no Tick follows
	freeze   chan struct{} // closed to make the consumer give up on a stuck stream

	recDone      chan error    // recognizer result
	consumerDone chan struct{} // consumer exited; recon is safe to read
	recon        *transcript.Reconciler
}

// New creates an idle controller.
func New(deps Deps) *Controller {
	if deps.StopTimeout <= 0 {
		deps.StopTimeout = 5 * time.Second
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:    deps,
		updates: make(chan Update, 256),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Updates delivers state changes, ticks and transcript changes in order.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the active or finished session, if any.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return Session{}, false
	}
	return *c.sess, true
}

// Start moves idle to recording. Precondition failures leave the state idle.
func (c *Controller) Start(req StartRequest) (Session, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Session{}, ErrBusy
	}

	patient := strings.TrimSpace(req.PatientName)
	switch {
	case strings.TrimSpace(req.Doctor.Name) == "":
		c.mu.Unlock()
		return Session{}, &PreconditionError{Reason: "no doctor selected"}
	case patient == "":
		c.mu.Unlock()
		return Session{}, &PreconditionError{Reason: "patient name is empty"}
	}
	if c.deps.Preflight != nil {
		if err := c.deps.Preflight(); err != nil {
			c.mu.Unlock()
			return Session{}, &PreconditionError{Reason: err.Error()}
		}
	}

	now := c.deps.Now()
	id := uuid.NewString()
	sess := Session{
		ID:             id,
		Doctor:         req.Doctor,
		PatientName:    patient,
		StartedAt:      now,
		TranscriptPath: c.deps.Files.TranscriptPath(now, id),
	}

	ctx, cancel := context.WithCancel(c.ctx)
	r := &run{
		sess:         sess,
		cancel:       cancel,
		stopReq:      make(chan struct{}),
		stopTick:     make(chan struct{}),
		tickDone:     make(chan struct{}),
		freeze:       make(chan struct{}),
		recDone:      make(chan error, 1),
		consumerDone: make(chan struct{}),
		recon:        transcript.NewReconciler(),
	}
	c.sess = &sess
	c.run = r
	c.state = StateRecording
	c.mu.Unlock()

	log.Printf("session %s: start doctor=%q (%s) patient=%q", sess.ID, sess.Doctor.Name, sess.Doctor.Specialization, sess.PatientName)
	c.journalStart(sess)
	c.emit(StateChanged{From: StateIdle, To: StateRecording})

	speech := make(chan transcript.SpeechEvent, 64)
	go func() {
		err := c.deps.Recognizer.Stream(ctx, speech)
		close(speech)
		r.recDone <- err
	}()
	go c.consume(r, speech)
	go c.tick(r)
	go c.finish(r)

	return sess, nil
}

// Stop moves recording to stopping. The flush and extraction continue in the
// background; their outcome arrives on Updates.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return ErrNotRecording
	}
	r := c.run
	c.state = StateStopping
	close(r.stopTick)
	c.mu.Unlock()
	<-r.tickDone

	log.Printf("session %s: stop requested", r.sess.ID)
	c.emit(StateChanged{From: StateRecording, To: StateStopping})
	close(r.stopReq)
	return nil
}

// Acknowledge returns a done or error controller to idle.
func (c *Controller) Acknowledge() error {
	c.mu.Lock()
	from := c.state
	if from != StateDone && from != StateError {
		c.mu.Unlock()
		return ErrNoOutcome
	}
	c.state = StateIdle
	c.sess = nil
	c.run = nil
	c.mu.Unlock()

	c.emit(StateChanged{From: from, To: StateIdle})
	return nil
}

// Close aborts any session in progress. The controller is unusable afterwards.
func (c *Controller) Close() {
	c.cancel()
}

// consume is the sole owner of the reconciler while recording. Refreshes
// may be dropped under load; the frozen transcript is always delivered.
func (c *Controller) consume(r *run, speech <-chan transcript.SpeechEvent) {
	defer close(r.consumerDone)
	for {
		select {
		case ev, ok := <-speech:
			if !ok {
				c.emit(TranscriptChanged{Lines: r.recon.Lines()})
				return
			}
			r.recon.Apply(ev)
			c.trySend(TranscriptChanged{Lines: r.recon.Lines()})
		case <-r.freeze:
			c.emit(TranscriptChanged{Lines: r.recon.Lines()})
			return
		}
	}
}

func (c *Controller) tick(r *run) {
	defer close(r.tickDone)
	t := time.NewTicker(c.deps.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.trySend(Tick{Elapsed: c.deps.Now().Sub(r.sess.StartedAt)})
		case <-r.stopTick:
			return
		}
	}
}

// finish waits for the recording to end, by stop or by stream failure, then
// drives flush, extraction and rendering to a terminal state.
func (c *Controller) finish(r *run) {
	id := r.sess.ID

	select {
	case <-r.stopReq:
		r.cancel()
		c.awaitRecognizer(r)
	case err := <-r.recDone:
		c.mu.Lock()
		stopped := c.state != StateRecording
		if !stopped {
			c.state = StateStopping
			close(r.stopTick)
		}
		c.mu.Unlock()
		r.cancel()

		if stopped {
			if err != nil {
				log.Printf("session %s: recognizer ended with %v during stop", id, err)
			}
			<-r.stopReq
			break
		}
		if err == nil {
			err = errStreamEnded
		}
		<-r.tickDone
		c.emit(StateChanged{From: StateRecording, To: StateStopping})
		<-r.consumerDone
		c.flushPartial(r)
		c.fail(r, StateStopping, &StreamError{Err: err}, "", "")
		return
	}

	<-r.consumerDone
	text, err := c.flush(r)
	if err != nil {
		c.fail(r, StateStopping, err, "", "")
		return
	}

	c.transition(StateStopping, StateExtracting, id, "")
	res, err := c.deps.Extractor.Extract(c.ctx, extract.Request{
		Transcript:     text,
		Specialization: r.sess.Doctor.Specialization,
		DoctorName:     r.sess.Doctor.Name,
		PatientName:    r.sess.PatientName,
	})
	if err != nil {
		c.fail(r, StateExtracting, err, "", "")
		return
	}

	resultPath, err := c.deps.Files.SaveResult(res, c.deps.Now(), id)
	if err != nil {
		c.fail(r, StateExtracting, &PersistenceError{Op: "save result", Err: err}, "", "")
		return
	}
	log.Printf("session %s: result saved to %s", id, resultPath)

	reportPath, err := c.deps.Renderer.Render(r.sess.PatientName, report.Body(res))
	if err != nil {
		c.fail(r, StateExtracting, &PersistenceError{Op: "render report", Err: err}, resultPath, "")
		return
	}
	log.Printf("session %s: report written to %s", id, reportPath)

	c.journalFinish(id, db.Outcome{Status: db.StatusDone, ResultPath: resultPath, ReportPath: reportPath, EndedAt: c.deps.Now()})
	c.emit(Completed{Session: r.sess, Result: res, ResultPath: resultPath, ReportPath: reportPath})
	c.transition(StateExtracting, StateDone, id, "")
}

// awaitRecognizer waits up to StopTimeout for the recognizer to return. A
// stuck stream is abandoned and the transcript is frozen as it stands.
func (c *Controller) awaitRecognizer(r *run) {
	timer := time.NewTimer(c.deps.StopTimeout)
	defer timer.Stop()

	select {
	case err := <-r.recDone:
		if err != nil {
			log.Printf("session %s: recognizer stopped with %v", r.sess.ID, err)
		}
	case <-timer.C:
		log.Printf("session %s: recognizer did not stop within %v, proceeding", r.sess.ID, c.deps.StopTimeout)
		close(r.freeze)
	}
}

// flush writes the frozen transcript and reads it back for extraction.
func (c *Controller) flush(r *run) (string, error) {
	path := r.sess.TranscriptPath
	if err := c.deps.Files.WriteTranscript(path, r.recon.SnapshotText()); err != nil {
		return "", &PersistenceError{Op: "write transcript", Path: path, Err: err}
	}

	data, err := c.deps.Files.ReadTranscript(path)
	if err != nil {
		return "", &PersistenceError{Op: "read transcript", Path: path, Err: err}
	}
	text := strings.TrimSpace(data)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	log.Printf("session %s: transcript flushed to %s (%d lines)", r.sess.ID, path, strings.Count(text, "\n")+1)
	return text, nil
}

// flushPartial keeps whatever was recognized before a stream failure.
func (c *Controller) flushPartial(r *run) {
	text := r.recon.SnapshotText()
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := c.deps.Files.WriteTranscript(r.sess.TranscriptPath, text); err != nil {
		log.Printf("session %s: partial transcript not saved: %v", r.sess.ID, err)
	}
}

func (c *Controller) fail(r *run, from State, err error, resultPath, reportPath string) {
	log.Printf("session %s: %s failed: %v", r.sess.ID, from, err)
	sentry.CaptureException(err)

	c.journalFinish(r.sess.ID, db.Outcome{
		Status:     db.StatusError,
		Reason:     err.Error(),
		ResultPath: resultPath,
		ReportPath: reportPath,
		EndedAt:    c.deps.Now(),
	})
	c.emit(Failed{Session: r.sess, Err: err})
	c.transition(from, StateError, r.sess.ID, err.Error())
}

func (c *Controller) transition(from, to State, id, reason string) {
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()

	log.Printf("session %s: %s -> %s", id, from, to)
	c.emit(StateChanged{From: from, To: to, Reason: reason})
}

func (c *Controller) journalStart(sess Session) {
	if c.deps.Journal == nil {
		return
	}
	err := c.deps.Journal.InsertSession(db.Session{
		ID:             sess.ID,
		Doctor:         sess.Doctor.Name,
		Specialization: string(sess.Doctor.Specialization),
		Patient:        sess.PatientName,
		StartedAt:      sess.StartedAt,
		TranscriptPath: sess.TranscriptPath,
	})
	if err != nil {
		log.Printf("session %s: journal: %v", sess.ID, err)
	}
}

func (c *Controller) journalFinish(id string, out db.Outcome) {
	if c.deps.Journal == nil {
		return
	}
	if err := c.deps.Journal.FinishSession(id, out); err != nil {
		log.Printf("session %s: journal: %v", id, err)
	}
}

// emit delivers transitions and outcomes; these are never dropped.
func (c *Controller) emit(u Update) {
	c.updates <- u
}

// trySend delivers ticks and transcript refreshes if there is room.
func (c *Controller) trySend(u Update) {
	select {
	case c.updates <- u:
	default:
	}
}
