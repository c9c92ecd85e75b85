// Package dispatch implements the per-turn loop that mediates between the
// model chat session and the app broker: it classifies proposed tool calls as
// reads or writes, executes reads and feeds results back to the model, defers
// dependent apps behind their prerequisites, and surfaces writes as
// confirmation proposals instead of executing them.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/llm"
	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/internal/retry"
	"github.com/haasonsaas/concierge/pkg/models"
)

const (
	defaultMaxIterations = 5
	defaultPayloadLimit  = 30000
)

const rateLimitApology = "I'm temporarily rate-limited by the model provider. Please try again in a moment."

// Config tunes the dispatcher loop.
type Config struct {
	// MaxIterations bounds the number of planning passes per turn.
	MaxIterations int
	// Retry configures the bounded retry applied to every model round-trip.
	Retry retry.Config
	// PayloadLimit caps the serialized length of a tool result fed back to
	// the model; longer payloads are truncated with a marker.
	PayloadLimit int
	// GatePairs lists prerequisite relationships between apps.
	GatePairs []GatePair
}

// DefaultConfig returns the production dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: defaultMaxIterations,
		Retry:         retry.DefaultConfig(),
		PayloadLimit:  defaultPayloadLimit,
		GatePairs:     DefaultGatePairs(),
	}
}

// TurnInput is everything the caller supplies for one conversation turn.
type TurnInput struct {
	UserInput string
	UserID    string
	// RequiredApps optionally names apps the caller expects the model to
	// cover; the dispatcher nudges the model once if one produced no call.
	RequiredApps []string
	// ConfirmedAction, when set, is a previously proposed write the user has
	// approved; it executes before the loop resumes.
	ConfirmedAction *models.ActionRecord
}

// Dispatcher runs conversation turns. It is safe for concurrent use; all
// per-turn state lives in the turn, not the Dispatcher.
type Dispatcher struct {
	registry *apps.Registry
	broker   broker.Broker
	config   Config
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// New creates a Dispatcher. metrics may be nil to disable instrumentation.
func New(registry *apps.Registry, b broker.Broker, config Config, logger *observability.Logger, metrics *observability.Metrics) *Dispatcher {
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaultMaxIterations
	}
	if config.PayloadLimit <= 0 {
		config.PayloadLimit = defaultPayloadLimit
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = retry.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	return &Dispatcher{
		registry: registry,
		broker:   b,
		config:   config,
		logger:   logger.WithComponent("dispatch"),
		metrics:  metrics,
	}
}

// Run executes one turn and streams events on the returned channel. The
// channel is closed when the turn finishes; cancelling ctx aborts the turn.
func (d *Dispatcher) Run(ctx context.Context, chat llm.Chat, input TurnInput) <-chan models.Event {
	events := make(chan models.Event, 16)
	go func() {
		defer close(events)

		start := time.Now()
		if d.metrics != nil {
			d.metrics.ActiveTurns.Inc()
			defer d.metrics.ActiveTurns.Dec()
		}

		t := &turn{
			d:      d,
			ctx:    ctx,
			chat:   chat,
			input:  input,
			events: events,
			gate:   gate{pairs: d.config.GatePairs},
			state:  newTurnState(),
		}
		outcome := t.run(ctx)

		if d.metrics != nil {
			d.metrics.TurnCounter.WithLabelValues(outcome).Inc()
			d.metrics.TurnDuration.Observe(time.Since(start).Seconds())
		}
		d.logger.Info(ctx, "turn finished",
			"outcome", outcome,
			"iterations", t.state.iteration,
			"involved_apps", strings.Join(t.state.involvedApps, ","),
		)
	}()
	return events
}

// errTurnEnded signals that the turn already emitted its terminal events and
// the caller should stop without adding a generic error message.
var errTurnEnded = errors.New("turn ended")

// turn holds the state of one Run invocation.
type turn struct {
	d       *Dispatcher
	ctx     context.Context
	chat    llm.Chat
	input   TurnInput
	events  chan<- models.Event
	gate    gate
	state   *turnState
	outcome string
}

func (t *turn) run(ctx context.Context) string {
	st := t.state

	// Fast combined summary when the request plainly spans several apps.
	// Pills still appear one by one from actual tool calls.
	if t.input.ConfirmedAction == nil {
		if detected := apps.DetectApps(t.input.UserInput); len(detected) > 1 {
			for _, app := range detected {
				st.noteApp(app)
			}
			t.emit(models.NewEarlySummary(combinedSummary(detected), detected[0], st.involvedApps))
			st.earlySummarySent = true
		}
	}

	resp, err := t.roundTrip(ctx, func() (*llm.Response, error) {
		return t.chat.SendUserMessage(ctx, t.input.UserInput)
	})
	if err != nil {
		return t.fail(ctx, err)
	}
	t.forwardThoughts(resp)

	if t.input.ConfirmedAction != nil {
		resp, err = t.executeConfirmed(ctx, resp)
		if err != nil {
			return t.fail(ctx, err)
		}
		t.forwardThoughts(resp)
	}

	for st.iteration = 0; st.iteration < t.d.config.MaxIterations; st.iteration++ {
		if err := ctx.Err(); err != nil {
			return t.fail(ctx, err)
		}
		st.phase = PhasePlanning

		reads := st.pendingReads
		st.pendingReads = nil
		pass := t.classify(ctx, resp, true)
		reads = append(reads, pass.reads...)

		// One read per pass keeps status pairs sequential per app; the rest
		// requeue for later passes.
		if len(reads) > 0 {
			st.phase = PhaseExecutingRead
			if len(reads) > 1 {
				st.pendingReads = append(st.pendingReads, reads[1:]...)
			}
			resp, err = t.executeRead(ctx, reads[0])
			if err != nil {
				return t.fail(ctx, err)
			}
			t.forwardThoughts(resp)
			continue
		}

		if len(st.pendingWrites) > 0 {
			if missing := t.missingRequiredApps(); len(missing) > 0 && !st.coverageNudgeSent {
				st.coverageNudgeSent = true
				resp, err = t.roundTrip(ctx, func() (*llm.Response, error) {
					return t.chat.SendUserMessage(ctx, coverageNudge(missing))
				})
				if err != nil {
					return t.fail(ctx, err)
				}
				t.forwardThoughts(resp)
				continue
			}

			st.phase = PhaseAwaitingConfirmation
			t.flushProposals(ctx)
			return "proposed"
		}

		if !pass.foundCall {
			if !st.toolNudgeSent && !st.writeExecuted && t.input.ConfirmedAction == nil &&
				apps.LooksLikeToolRequest(t.input.UserInput) {
				st.toolNudgeSent = true
				t.d.logger.Debug(ctx, "model returned text only, nudging toward tool use")
				resp, err = t.roundTrip(ctx, func() (*llm.Response, error) {
					return t.chat.SendUserMessage(ctx, toolNudge)
				})
				if err != nil {
					return t.fail(ctx, err)
				}
				t.forwardThoughts(resp)
				continue
			}
			break
		}

		// Calls were present but every one was deduplicated or deferred.
		break
	}

	st.phase = PhaseFinished

	finalText := ""
	if resp != nil {
		finalText = resp.Text
	}
	actionPerformed := ""
	if st.writeExecuted {
		actionPerformed = st.actionPerformed
		if actionPerformed == "" {
			actionPerformed = "Action Executed"
		}
	}
	t.emit(models.NewMessage(finalText, actionPerformed))
	return "completed"
}

// fail maps a loop error to a turn outcome, emitting a generic error message
// unless the turn already produced its terminal events.
func (t *turn) fail(ctx context.Context, err error) string {
	if errors.Is(err, errTurnEnded) {
		if t.outcome != "" {
			return t.outcome
		}
		return "error"
	}
	t.d.logger.Error(ctx, "turn failed", "error", err)
	t.emit(models.NewMessage("An error occurred: "+err.Error(), ""))
	return "error"
}

// roundTrip wraps one model call with bounded rate-limit-only retry. On
// exhaustion it flushes any queued writes as proposals, apologizes, and ends
// the turn; non-rate-limit errors propagate to the caller.
func (t *turn) roundTrip(ctx context.Context, op func() (*llm.Response, error)) (*llm.Response, error) {
	attempts := 0
	resp, result := retry.DoWithValue(ctx, t.d.config.Retry, func() (*llm.Response, error) {
		attempts++
		resp, err := op()
		if err == nil {
			return resp, nil
		}
		if !llm.IsRateLimited(err) {
			return nil, retry.Permanent(err)
		}
		t.d.logger.Warn(ctx, "model rate limited", "attempt", attempts, "error", err)
		if t.d.metrics != nil {
			t.d.metrics.RateLimitRetryCounter.WithLabelValues(providerLabel(err)).Inc()
		}
		return nil, err
	})
	if result.Err == nil {
		return resp, nil
	}

	err := result.Err
	var permanent *retry.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if llm.IsRateLimited(err) {
		t.flushProposals(ctx)
		t.emit(models.NewMessage(rateLimitApology, ""))
		t.outcome = "rate_limited"
		return nil, errTurnEnded
	}
	return nil, err
}

func (t *turn) forwardThoughts(resp *llm.Response) {
	if resp == nil {
		return
	}
	for _, thought := range resp.Thoughts {
		t.emit(models.ThinkingEvent{Type: models.EventThinking, Content: thought})
	}
}

func (t *turn) emit(ev models.Event) {
	if t.d.metrics != nil {
		t.d.metrics.EventCounter.WithLabelValues(string(ev.Kind())).Inc()
	}
	select {
	case t.events <- ev:
	case <-t.ctx.Done():
	}
}

func (t *turn) missingRequiredApps() []string {
	var missing []string
	for _, app := range t.input.RequiredApps {
		id := apps.NormalizeAppID(app)
		if id != "" && !t.state.involvedSet[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func providerLabel(err error) string {
	var provErr *llm.ProviderError
	if errors.As(err, &provErr) && provErr.Provider != "" {
		return provErr.Provider
	}
	return "unknown"
}
