package verifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Post402/post402-starter-kit/pkg/facilitatorclient"
	"github.com/Post402/post402-starter-kit/pkg/types"
)

// settlementTimeout bounds one settlement call. Settlement runs
// detached from the request that triggered it, so an aborted client
// never cancels it.
const settlementTimeout = 30 * time.Second

// settlementQueueSize bounds the backlog. Settlement is best-effort;
// when the queue is full the job is dropped and logged.
const settlementQueueSize = 64

type settlementJob struct {
	transactionID string
	payment       *types.PaymentPayload
}

// settlementWorker delivers settle notifications in the background.
// Failures are observed only in logs, never in verification outcomes.
type settlementWorker struct {
	facilitator *facilitatorclient.Client
	logger      *slog.Logger
	jobs        chan settlementJob
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func newSettlementWorker(facilitator *facilitatorclient.Client, logger *slog.Logger) *settlementWorker {
	w := &settlementWorker{
		facilitator: facilitator,
		logger:      logger,
		jobs:        make(chan settlementJob, settlementQueueSize),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *settlementWorker) dispatch(transactionID string, payment *types.PaymentPayload) {
	select {
	case w.jobs <- settlementJob{transactionID: transactionID, payment: payment}:
	default:
		w.logger.Warn("settlement queue full, dropping notification",
			"transactionId", transactionID)
	}
}

func (w *settlementWorker) close() {
	w.closeOnce.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}

func (w *settlementWorker) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), settlementTimeout)
		_, err := w.facilitator.Settle(ctx, job.transactionID, job.payment)
		cancel()
		if err != nil {
			w.logger.Warn("settlement notification failed",
				"transactionId", job.transactionID, "error", err)
		}
	}
}
