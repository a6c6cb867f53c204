// Package handlers contains reusable pieces of the HTTP interface: health
// checking and small middleware.
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("0.1.0")
//	checker.AddCheck("slot", handlers.NewSlotCheck(slot))
//	checker.AddCheck("state", handlers.NewStateCheck(holder))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Warn("health check failed", logger.String("reason", status.Message))
//	}
//
// # Middleware
//
// Middleware are plain func(http.Handler) http.Handler values and compose with
// Chain:
//
//	h := handlers.ChainHandler(mux,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	)
package handlers
