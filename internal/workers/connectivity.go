package workers

import (
	"context"
	"sync"

	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/netmon"
)

// ConnectivityMonitor is the part of the connectivity monitor this worker
// consumes. Satisfied by *netmon.Monitor.
type ConnectivityMonitor interface {
	Start(ctx context.Context)
	Stop()
	Events() <-chan netmon.Event
}

// ConnectivityHandler reacts to connectivity transitions. Satisfied by
// *service.Orchestrator.
type ConnectivityHandler interface {
	OnConnectivityRestored(ctx context.Context)
}

// ConnectivityWorker runs the connectivity monitor and forwards
// offline-to-online transitions to the handler, which drains the offline
// queue and schedules a sync pass.
type ConnectivityWorker struct {
	monitor ConnectivityMonitor
	handler ConnectivityHandler
	logger  *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConnectivityWorker(monitor ConnectivityMonitor, handler ConnectivityHandler, log *logger.Logger) *ConnectivityWorker {
	return &ConnectivityWorker{
		monitor: monitor,
		handler: handler,
		logger:  log,
	}
}

// Run implements Worker.
func (w *ConnectivityWorker) Run(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.monitor.Start(workerCtx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case ev := <-w.monitor.Events():
				if !ev.Online {
					w.logger.Info().Time("at", ev.At).Msg("backend unreachable")
					continue
				}
				w.logger.Info().Time("at", ev.At).Msg("connectivity restored")
				w.handler.OnConnectivityRestored(workerCtx)
			}
		}
	}()
}

// Stop implements Worker.
func (w *ConnectivityWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.monitor.Stop()
	w.wg.Wait()
}
