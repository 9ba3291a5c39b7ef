// Package shutdown реализует корректное завершение приложения по SIGINT/SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nlnotes/pkg/logger"
)

// Hook - действие, выполняемое при остановке.
type Hook func(context.Context) error

// Wait блокируется до получения сигнала или отмены ctx, затем параллельно
// выполняет хуки, ограничивая их общим timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Log(ctx).Info(ctx, "shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run выполняет хуки немедленно.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	log := logger.Log(ctx)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for _, err := range runParallel(ctx, hooks) {
			log.Error(ctx, "shutdown hook failed", zap.Error(err))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn(ctx, "shutdown timed out", zap.Duration("timeout", timeout))
	}
}

// Sequential объединяет фазы в один хук. Фазы выполняются по порядку,
// хуки внутри фазы параллельно. Следующая фаза стартует, когда завершились
// все хуки предыдущей, даже если часть из них вернула ошибку.
func Sequential(phases ...[]Hook) Hook {
	return func(ctx context.Context) error {
		var errs []error
		for _, phase := range phases {
			errs = append(errs, runParallel(ctx, phase)...)
		}
		return errors.Join(errs...)
	}
}

func runParallel(ctx context.Context, hooks []Hook) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(hook)
	}
	wg.Wait()
	return errs
}
