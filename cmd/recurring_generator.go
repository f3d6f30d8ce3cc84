package main

import (
	"context"
	"log"
	"time"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

const (
	recurringGeneratorInterval = 24 * time.Hour
	recurringGeneratorTimeout  = 5 * time.Minute
)

// startRecurringGenerator materializes weekly templates into concrete
// requests once a day, catching everything due within the next 24 hours.
func startRecurringGenerator(ctx context.Context, svc *services.RecurringRequestService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(recurringGeneratorInterval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, recurringGeneratorTimeout)
			generated, err := svc.GenerateDueRequests(runCtx)
			cancel()
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("recurring generator: failed to generate requests: %v", err)
				}
			} else if generated > 0 && infoLog != nil {
				infoLog.Printf("recurring generator: generated %d service requests", generated)
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
