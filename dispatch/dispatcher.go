// Package dispatch routes a message to a registered local agent or a remote
// HTTP peer and records exactly one telemetry entry for every routable
// message, whether it succeeded or failed.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
)

// HandleSource resolves agent ids to runnable handles. *registry.Registry satisfies it.
type HandleSource interface {
	LookupHandle(id string) (core.Agent, bool)
}

// Options configures a Dispatcher.
type Options struct {
	// RemoteTimeout bounds each remote call. Defaults to DefaultRemoteTimeout.
	RemoteTimeout time.Duration
	HTTPClient    *http.Client
	Breaker       BreakerConfig
	Logger        logging.Logger
	Metrics       *metrics.Metrics
	// NewSessionID generates ids for messages without one.
	NewSessionID func() string
	Clock        func() time.Time
}

// Dispatcher delivers messages and appends the outcome to a telemetry store.
type Dispatcher struct {
	handles HandleSource
	store   core.TelemetryStore
	remote  *RemoteClient
	opts    Options
}

// New creates a Dispatcher reading handles from handles and writing records to store.
func New(handles HandleSource, store core.TelemetryStore, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		RemoteTimeout: DefaultRemoteTimeout,
		Logger:        logging.NoOpLogger{},
		NewSessionID:  uuid.NewString,
		Clock:         time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Dispatcher{
		handles: handles,
		store:   store,
		remote:  NewRemoteClient(opts.HTTPClient, opts.RemoteTimeout, opts.Breaker, opts.Logger),
		opts:    opts,
	}
}

// Dispatch delivers req and returns the appended record.
//
// An unknown destination, a remote request without URL or a missing toId is
// rejected before anything is recorded. Otherwise the record is appended to
// the session even when delivery fails; the failure is then returned as
// *core.ExecutionError (local) or *core.GatewayError (remote). A local target
// that is not registered is answered with a not-found reply, not an error.
// A record the store fails to append is reported as an error too, joined with
// any delivery failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req core.MessageRequest) (core.DispatchRecord, error) {
	dest, err := req.Destination()
	if err != nil {
		return core.DispatchRecord{}, err
	}
	if err := req.Validate(); err != nil {
		return core.DispatchRecord{}, err
	}

	if req.SessionID == "" {
		req.SessionID = d.opts.NewSessionID()
	}

	start := d.opts.Clock()

	rec := core.DispatchRecord{
		Timestamp:       start.UTC(),
		SessionID:       req.SessionID,
		FromID:          req.FromID,
		ToID:            req.ToID,
		Message:         req.Message,
		DestinationType: dest,
	}

	var deliveryErr error
	if dest == core.DestinationRemote {
		rec.RemoteURL = req.RemoteURL
		deliveryErr = d.deliverRemote(ctx, &rec)
	} else {
		deliveryErr = d.deliverLocal(ctx, &rec)
	}

	elapsed := d.opts.Clock().Sub(start)
	rec.DurationMS = elapsed.Milliseconds()

	d.opts.Metrics.ObserveDispatch(string(dest), elapsed, deliveryErr)
	logging.Dispatch(d.opts.Logger, rec.SessionID, rec.ToID, string(dest), elapsed, deliveryErr)

	if err := d.store.Append(rec.SessionID, rec); err != nil {
		d.opts.Logger.Error("dispatch.telemetry.append_failed", "session_id", rec.SessionID, "error", err.Error())
		return rec, errors.Join(deliveryErr, fmt.Errorf("record telemetry for session %s: %w", rec.SessionID, err))
	}

	return rec, deliveryErr
}

func (d *Dispatcher) deliverLocal(ctx context.Context, rec *core.DispatchRecord) error {
	h, ok := d.handles.LookupHandle(rec.ToID)
	if !ok {
		rec.Reply = core.NotFoundReply(rec.ToID)
		return nil
	}

	reply, err := h.Run(ctx, rec.Message)
	if err != nil {
		rec.Error = err.Error()
		return &core.ExecutionError{AgentID: rec.ToID, Err: err}
	}

	rec.Reply = reply
	return nil
}

func (d *Dispatcher) deliverRemote(ctx context.Context, rec *core.DispatchRecord) error {
	reply, err := d.remote.Send(ctx, rec.RemoteURL, rec.FromID, rec.Message)
	if err != nil {
		rec.Error = err.Error()
		return err
	}

	rec.Reply = reply
	return nil
}

// Converse runs the local agent agentID directly, without telemetry. found is
// false, with the not-found reply, when no handle is registered.
func (d *Dispatcher) Converse(ctx context.Context, agentID, message string) (reply string, found bool, err error) {
	h, ok := d.handles.LookupHandle(agentID)
	if !ok {
		return core.NotFoundReply(agentID), false, nil
	}

	start := d.opts.Clock()
	reply, err = h.Run(ctx, message)
	d.opts.Logger.Debug("dispatch.converse", "agent_id", agentID, "duration", d.opts.Clock().Sub(start))
	if err != nil {
		return "", true, &core.ExecutionError{AgentID: agentID, Err: err}
	}

	return reply, true, nil
}
