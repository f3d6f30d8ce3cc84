package main

import (
	"context"
	"log"
	"time"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

const (
	requestExpirerInterval = 1 * time.Minute
	requestExpirerTimeout  = 30 * time.Second
)

// startRequestExpirer sweeps stale PENDING requests into EXPIRED once a
// minute. The sweep is idempotent, so overlapping deployments are harmless.
func startRequestExpirer(ctx context.Context, svc *services.ServiceRequestService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(requestExpirerInterval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, requestExpirerTimeout)
			expired, err := svc.ExpireDue(runCtx)
			cancel()
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("request expirer: failed to expire pending requests: %v", err)
				}
			} else if expired > 0 && infoLog != nil {
				infoLog.Printf("request expirer: expired %d pending requests", expired)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
