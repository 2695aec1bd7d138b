package event

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	subscriptions map[string][]func(event Queueable)
}

var (
	instance = &worker{
		subscriptions: map[string][]func(event Queueable){},
	}
	l = log.WithField("context", "event_worker")
)

func Subscribe(eventType string, handler func(event Queueable)) {
	instance.subscriptions[eventType] = append(instance.subscriptions[eventType], handler)
}

func RunWorker() context.CancelFunc {
	ctx, cancelFunc := context.WithCancel(context.Background())
	instance.Run(ctx)
	return cancelFunc
}

func (w *worker) Run(ctx context.Context) {
	done := ctx.Done()

	go func() {
		l.Trace("events runner go")
		var event Queueable
		for {
			select {
			case <-done:
				l.Info("shutting down event worker by cancelled context")
				return
			default:
				time.Sleep(1 * time.Millisecond)
				event = Bus.DQ()
				if event == nil {
					continue
				}

				if event.Expired() {
					continue
				}

				subscribers, ok := w.subscriptions[event.Type()]
				if !ok {
					Bus.NQ(event)
					continue
				}
				for _, sub := range subscribers {
					sub(event)
					if event.IsDropped() {
						continue
					}
				}

				if event.IsDropped() {
					continue
				}
				if !event.IsProcessed() {
					// not due yet, keep it in the queue
					Bus.NQ(event)
				}
			}
		}
	}()
}
