package http

import (
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/mapper"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "admin_identity"

func accessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if status >= fiber.StatusInternalServerError {
			log.Warn("http: request", fields...)
		} else {
			log.Debug("http: request", fields...)
		}
		return err
	}
}

func (s *Server) requireAdmin(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return s.adminFail(c, "authenticate", exceptions.ErrUnauthorized)
	}

	identity, err := s.auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return s.adminFail(c, "authenticate", err)
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

func requireWrite(c *fiber.Ctx) error {
	identity := adminIdentity(c)
	if identity == nil || !identity.Role.CanWrite() {
		status, msg := mapper.AdminError(exceptions.ErrForbidden)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Next()
}

func adminIdentity(c *fiber.Ctx) *entities.AdminIdentity {
	identity, _ := c.Locals(identityKey).(*entities.AdminIdentity)
	return identity
}

// fail answers a Mini App request. Business errors keep status 200.
func (s *Server) fail(c *fiber.Ctx, op string, err error) error {
	status, msg := mapper.Error(err)
	s.logFailure(op, status, err)
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) adminFail(c *fiber.Ctx, op string, err error) error {
	status, msg := mapper.AdminError(err)
	s.logFailure(op, status, err)
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) logFailure(op string, status int, err error) {
	if status >= fiber.StatusInternalServerError {
		s.log.Error("http: "+op+" failed", zap.Error(err))
		return
	}
	s.log.Warn("http: "+op+" rejected", zap.Error(err))
}
