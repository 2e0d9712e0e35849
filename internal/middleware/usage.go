package middleware

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/store"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CountAPIUsage bumps the tenant's monthly API call counter after each
// authenticated request. Best-effort: a failed increment is logged and the
// request outcome is unaffected.
func CountAPIUsage(usage *store.UsageStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			if p, ok := principal.FromEcho(c); ok && p.Kind == principal.KindUser {
				if incErr := usage.IncrementAPICalls(p.TenantID); incErr != nil {
					logger.FromEcho(c).Warn("failed to count API usage",
						zap.Uint("tenant_id", p.TenantID),
						zap.Error(incErr))
				}
			}

			return err
		}
	}
}
