package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/events"
)

// TaskDeliver is the asynq task type carrying a finalized invoice.
const TaskDeliver = "receipt:deliver"

// Payload is the task body of TaskDeliver.
type Payload struct {
	SessionID string       `json:"sessionId"`
	Invoice   cart.Invoice `json:"invoice"`
}

// Enqueuer is the subset of *asynq.Client used by the dispatcher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher queues a receipt delivery for every generated invoice.
type Dispatcher struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
}

// Notify implements events.Notifier. Events other than invoice.generated are ignored.
func (d Dispatcher) Notify(ctx context.Context, evt events.Event) error {
	if evt.Topic != events.TopicInvoiceGenerated || d.Client == nil {
		return nil
	}
	var inv cart.Invoice
	if err := json.Unmarshal(evt.Payload, &inv); err != nil {
		return fmt.Errorf("receipt: decode invoice: %w", err)
	}
	task, err := NewDeliverTask(evt.AggregateID, inv)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.MaxRetry(d.MaxRetry)}
	if d.Queue != "" {
		opts = append(opts, asynq.Queue(d.Queue))
	}
	if inv.Number != "" {
		opts = append(opts, asynq.TaskID("receipt:"+inv.Number))
	}
	if _, err := d.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("receipt: enqueue %s: %w", inv.Number, err)
	}
	return nil
}

// NewDeliverTask builds the asynq task for an invoice.
func NewDeliverTask(sessionID string, inv cart.Invoice) (*asynq.Task, error) {
	body, err := json.Marshal(Payload{SessionID: sessionID, Invoice: inv})
	if err != nil {
		return nil, fmt.Errorf("receipt: encode payload: %w", err)
	}
	return asynq.NewTask(TaskDeliver, body), nil
}
