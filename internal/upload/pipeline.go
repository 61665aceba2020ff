package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TicksPerFile is the number of progress units each file contributes during processing.
const TicksPerFile = 10

// Source is a file offered for upload. Open is called exactly once at submit time.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Predictor sends a batch to the inference service and returns the raw response body.
type Predictor interface {
	Predict(ctx context.Context, batch *models.UploadBatch) ([]byte, error)
}

// ResultSink receives normalized results on the success path.
type ResultSink interface {
	Append(results ...models.PredictionResult)
}

// Archiver mirrors appended batches to durable storage.
type Archiver interface {
	SaveBatch(ctx context.Context, results []models.PredictionResult) error
}

// Outcome is what a successful Submit produced.
type Outcome struct {
	BatchID  string                    `json:"batchId"`
	Results  []models.PredictionResult `json:"results"`
	Failures []models.ItemFailure      `json:"failures"`
	Skipped  []models.SkippedFile      `json:"skipped"`
}

// Event reports a pipeline transition or progress step.
type Event struct {
	BatchID  string       `json:"batchId,omitempty"`
	Phase    models.Phase `json:"phase"`
	Progress float64      `json:"progress"` // 0-100 within the current phase
	Message  string       `json:"message,omitempty"`
	Time     time.Time    `json:"time"`
}

// Pipeline drives one upload-to-result cycle at a time.
type Pipeline struct {
	predictor Predictor
	sink      ResultSink
	archive   Archiver
	clock     func() time.Time

	mu     sync.Mutex
	phase  models.Phase
	cancel context.CancelFunc

	subMu       sync.RWMutex
	subscribers map[int]chan Event
	nextSubID   int
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithArchive mirrors every appended batch to a.
func WithArchive(a Archiver) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithClock overrides the wall clock used for result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// NewPipeline creates an idle pipeline.
func NewPipeline(predictor Predictor, sink ResultSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		predictor:   predictor,
		sink:        sink,
		clock:       time.Now,
		phase:       models.PhaseIdle,
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phase returns the current phase.
func (p *Pipeline) Phase() models.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Cancel aborts the in-flight submission, if any. It reports whether one was running.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	return true
}

// Submit uploads sources as one batch, normalizes the response and appends it to the sink.
// A call made while another submission is in flight fails with ErrBusy.
func (p *Pipeline) Submit(ctx context.Context, sources []Source) (*Outcome, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyBatch
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.phase != models.PhaseIdle {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	// Claim the pipeline under the same lock as the idle check.
	p.phase = models.PhaseUploading
	p.cancel = cancel
	p.mu.Unlock()

	batchID := uuid.New().String()
	p.publish(Event{
		BatchID: batchID,
		Phase:   models.PhaseUploading,
		Message: fmt.Sprintf("uploading %d file(s)", len(sources)),
		Time:    time.Now(),
	})

	batch, skipped := snapshot(batchID, sources, p.clock())
	for _, s := range skipped {
		log.Warnf("[Pipeline %s] Skipping %s: %s", shortID(batchID), s.Name, s.Reason)
	}
	if batch.Len() == 0 {
		return nil, p.fail(batchID, ErrEmptyBatch)
	}

	log.Infof("[Pipeline %s] Sending %d file(s) (%d bytes)", shortID(batchID), batch.Len(), batch.TotalSize())

	body, err := p.predictor.Predict(ctx, batch)
	if err != nil {
		return nil, p.fail(batchID, classify(err))
	}

	p.transition(batchID, models.PhaseProcessing, 0, "processing response")

	totalTicks := batch.Len() * TicksPerFile
	results, failures, err := normalize.Batch(body, batch, p.clock, func(done int) {
		p.publish(Event{
			BatchID:  batchID,
			Phase:    models.PhaseProcessing,
			Progress: 100 * float64(done*TicksPerFile) / float64(totalTicks),
			Time:     time.Now(),
		})
	})
	if err != nil {
		return nil, p.fail(batchID, &DecodeError{Err: err})
	}
	for _, f := range failures {
		log.Warnf("[Pipeline %s] Item %d (%s) rejected: %s", shortID(batchID), f.Index, f.Filename, f.Reason)
	}

	p.sink.Append(results...)

	if p.archive != nil && len(results) > 0 {
		if err := p.archive.SaveBatch(context.WithoutCancel(ctx), results); err != nil {
			log.Errorf("[Pipeline %s] Failed to archive results: %v", shortID(batchID), err)
		}
	}

	p.transition(batchID, models.PhaseDone, 100, fmt.Sprintf("%d result(s), %d failure(s)", len(results), len(failures)))
	p.finish(batchID)

	log.Infof("[Pipeline %s] Complete: %d result(s), %d failure(s), %d skipped",
		shortID(batchID), len(results), len(failures), len(skipped))

	return &Outcome{
		BatchID:  batchID,
		Results:  results,
		Failures: failures,
		Skipped:  skipped,
	}, nil
}

// snapshot reads every source into memory so later normalization sees exactly what was sent.
// Unreadable and empty sources are excluded and reported.
func snapshot(batchID string, sources []Source, now time.Time) (*models.UploadBatch, []models.SkippedFile) {
	batch := &models.UploadBatch{
		ID:          batchID,
		Files:       make([]models.BatchFile, 0, len(sources)),
		SubmittedAt: now,
	}
	var skipped []models.SkippedFile

	for _, src := range sources {
		content, err := readSource(src)
		if err != nil {
			skipped = append(skipped, models.SkippedFile{Name: src.Name, Reason: err.Error()})
			continue
		}
		if len(content) == 0 {
			skipped = append(skipped, models.SkippedFile{Name: src.Name, Reason: "file is empty"})
			continue
		}
		batch.Files = append(batch.Files, models.BatchFile{
			ID:      uuid.New().String(),
			Name:    src.Name,
			Size:    int64(len(content)),
			Content: content,
		})
	}

	return batch, skipped
}

func readSource(src Source) ([]byte, error) {
	if src.Open == nil {
		return nil, errors.New("file is not readable")
	}
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return content, nil
}

// transition moves to next and notifies subscribers.
func (p *Pipeline) transition(batchID string, next models.Phase, progress float64, msg string) {
	p.mu.Lock()
	if !p.phase.CanTransition(next) {
		log.Errorf("[Pipeline %s] Illegal transition %s -> %s", shortID(batchID), p.phase, next)
	}
	p.phase = next
	p.mu.Unlock()

	p.publish(Event{
		BatchID:  batchID,
		Phase:    next,
		Progress: progress,
		Message:  msg,
		Time:     time.Now(),
	})
}

// fail records err, passes through the error phase and returns to idle.
func (p *Pipeline) fail(batchID string, err error) error {
	log.Errorf("[Pipeline %s] Error: %v", shortID(batchID), err)
	p.transition(batchID, models.PhaseError, 0, UserMessage(err))
	p.finish(batchID)
	return err
}

// finish returns the pipeline to idle. The phase and the cancel func are released
// together so a submit that claims the pipeline next keeps its own cancel func.
func (p *Pipeline) finish(batchID string) {
	p.mu.Lock()
	if !p.phase.CanTransition(models.PhaseIdle) {
		log.Errorf("[Pipeline %s] Illegal transition %s -> %s", shortID(batchID), p.phase, models.PhaseIdle)
	}
	p.phase = models.PhaseIdle
	p.cancel = nil
	p.mu.Unlock()

	p.publish(Event{
		BatchID: batchID,
		Phase:   models.PhaseIdle,
		Time:    time.Now(),
	})
}

// Subscribe returns a channel of pipeline events and a function that stops delivery.
// Slow subscribers miss events rather than stall the pipeline.
func (p *Pipeline) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subscribers, id)
			p.subMu.Unlock()
			close(ch)
		})
	}
}

func (p *Pipeline) publish(ev Event) {
	p.subMu.RLock()
	defer p.subMu.RUnlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
