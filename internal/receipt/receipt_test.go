package receipt_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/receipt"
	"github.com/noah-isme/backend-kasir/internal/session"
)

var renderer = receipt.Renderer{StoreName: "Optimus SuperMarket", Location: "Vijayawada"}

func sampleInvoice(t *testing.T) cart.Invoice {
	t.Helper()
	s, err := cart.Start("Asha", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = s.AddItem(catalog.Default(), "rice", 2)
	require.NoError(t, err)
	_, err = s.AddItem(catalog.Default(), "oil", 1)
	require.NoError(t, err)
	inv, err := s.Finalize(cart.Billing{TaxBps: pricing.DefaultTaxBps, Currency: "INR"}, time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	return inv
}

func TestRenderBill(t *testing.T) {
	text := renderer.Render(sampleInvoice(t))

	require.Contains(t, text, "Optimus SuperMarket")
	require.Contains(t, text, "Customer: Asha")
	require.Contains(t, text, "Date: 2024-05-01 10:05:00")
	require.Contains(t, text, "Total Amount: Rs 210\n")
	require.Contains(t, text, "GST (5%): Rs 10.50\n")
	require.Contains(t, text, "Final Amount: Rs 220.50\n")

	lines := strings.Split(text, "\n")
	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "1 ") || strings.HasPrefix(l, "2 ") {
			rows = append(rows, strings.Join(strings.Fields(l), " "))
		}
	}
	require.Equal(t, []string{"1 Rice 2 Rs 50 Rs 100", "2 Oil 1 Rs 110 Rs 110"}, rows)
}

func TestRateLabel(t *testing.T) {
	require.Equal(t, "5", receipt.RateLabel(500))
	require.Equal(t, "12.5", receipt.RateLabel(1250))
	require.Equal(t, "0", receipt.RateLabel(0))
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "id", Type: task.Type()}, nil
}

func TestDispatcherEnqueuesInvoices(t *testing.T) {
	client := &fakeEnqueuer{}
	bus := events.Bus{Notifiers: []events.Notifier{receipt.Dispatcher{Client: client, Queue: "receipts", MaxRetry: 3}}}
	inv := sampleInvoice(t)

	_, err := bus.Emit(context.Background(), events.TopicItemAdded, "s1", map[string]int{"qty": 1})
	require.NoError(t, err)
	require.Empty(t, client.tasks)

	_, err = bus.Emit(context.Background(), events.TopicInvoiceGenerated, "s1", inv)
	require.NoError(t, err)
	require.Len(t, client.tasks, 1)
	require.Equal(t, receipt.TaskDeliver, client.tasks[0].Type())
	require.Len(t, client.opts[0], 3)

	var p receipt.Payload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	require.Equal(t, "s1", p.SessionID)
	require.Equal(t, inv.Number, p.Invoice.Number)
	require.True(t, p.Invoice.GrandTotal.Equal(inv.GrandTotal))
}

func TestDispatcherTreatsDuplicateAsDelivered(t *testing.T) {
	d := receipt.Dispatcher{Client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	payload, err := json.Marshal(sampleInvoice(t))
	require.NoError(t, err)
	evt := events.Event{Topic: events.TopicInvoiceGenerated, AggregateID: "s1", Payload: payload}
	require.NoError(t, d.Notify(context.Background(), evt))

	d.Client = &fakeEnqueuer{err: errors.New("redis down")}
	require.Error(t, d.Notify(context.Background(), evt))
}

type capturePrinter struct {
	number string
	text   string
	err    error
}

func (c *capturePrinter) Print(_ context.Context, number, text string) error {
	c.number, c.text = number, text
	return c.err
}

func TestWorkerPrintsReceipt(t *testing.T) {
	inv := sampleInvoice(t)
	task, err := receipt.NewDeliverTask("s1", inv)
	require.NoError(t, err)

	printer := &capturePrinter{}
	w := receipt.Worker{Renderer: renderer, Printer: printer}
	require.NoError(t, w.ProcessTask(context.Background(), task))
	require.Equal(t, inv.Number, printer.number)
	require.Contains(t, printer.text, "Final Amount: Rs 220.50")

	printer.err = errors.New("printer jammed")
	err = w.ProcessTask(context.Background(), task)
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerSkipsRetryForMalformedTasks(t *testing.T) {
	w := receipt.Worker{Renderer: renderer, Printer: &capturePrinter{}}
	err := w.ProcessTask(context.Background(), asynq.NewTask(receipt.TaskDeliver, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = w.ProcessTask(context.Background(), asynq.NewTask(receipt.TaskDeliver, []byte(`{"invoice":{}}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReceiptHandler(t *testing.T) {
	ctx := context.Background()
	svc := &cart.Service{
		Store:   session.NewMemory(0),
		Catalog: catalog.Default(),
		Billing: cart.Billing{TaxBps: pricing.DefaultTaxBps, Currency: "INR"},
	}
	h := receipt.Handler{Service: svc, Renderer: renderer}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/invoice/receipt", nil)
	req = req.WithContext(common.WithSessionID(req.Context(), "s1"))

	rr := httptest.NewRecorder()
	h.Text(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	_, err := svc.Start(ctx, "s1", "Ravi")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", "paneer", 1)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, "s1")
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	h.Text(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), "Final Amount: Rs 420.00")
}
