package middleware

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Auth resolves the bearer credential on the tenant-user path and stores
// the principal in the request context. Partner tokens are rejected here.
func Auth(resolver *principal.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			p, err := resolver.ResolveUser(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.Warn("authentication failed", zap.Error(err))
				prometheus.RecordAuthError(authErrorType(err))
				return apperr.Write(c, err)
			}

			principal.ToEcho(c, p)
			return next(c)
		}
	}
}

// PartnerAuth is the partner-user counterpart of Auth. Tenant-user tokens
// are rejected here; the two populations never cross paths.
func PartnerAuth(resolver *principal.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			p, err := resolver.ResolvePartner(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.Warn("partner authentication failed", zap.Error(err))
				prometheus.RecordAuthError(authErrorType(err))
				return apperr.Write(c, err)
			}

			principal.ToEcho(c, p)
			return next(c)
		}
	}
}

func authErrorType(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		return "invalid_token"
	case apperr.KindForbidden:
		return "inactive_account"
	default:
		return "internal"
	}
}
