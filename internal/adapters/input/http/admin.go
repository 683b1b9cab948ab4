package http

import (
	"strings"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) adminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return s.adminFail(c, "admin login", exceptions.ErrUnauthorized)
	}
	token, identity, err := s.auth.Login(c.UserContext(), req.Password)
	if err != nil {
		return s.adminFail(c, "admin login", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"role":    identity.Role,
		"login":   identity.Login,
	})
}

func (s *Server) stats(c *fiber.Ctx) error {
	stats, err := s.admin.Stats(c.UserContext())
	if err != nil {
		return s.adminFail(c, "stats", err)
	}
	return c.JSON(stats)
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.admin.ListUsers(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list users", err)
	}
	return c.JSON(users)
}

func (s *Server) getUserDetails(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "get user", err)
	}
	details, err := s.admin.GetUser(c.UserContext(), id)
	if err != nil {
		return s.adminFail(c, "get user", err)
	}
	return c.JSON(details)
}

func (s *Server) userTasks(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "user tasks", err)
	}
	tasks, err := s.admin.UserTasks(c.UserContext(), id)
	if err != nil {
		return s.adminFail(c, "user tasks", err)
	}
	return c.JSON(tasks)
}

func (s *Server) userPurchases(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "user purchases", err)
	}
	purchases, err := s.admin.UserPurchases(c.UserContext(), id)
	if err != nil {
		return s.adminFail(c, "user purchases", err)
	}
	return c.JSON(purchases)
}

func (s *Server) updateBalance(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "update balance", err)
	}
	var req balanceRequest
	if err := parseBody(c, &req); err != nil {
		return s.adminFail(c, "update balance", err)
	}

	actor := adminIdentity(c).Login
	s.log.Info("http: update balance", zap.Int64("user_id", id), zap.String("actor", actor))
	user, err := s.admin.UpdateBalance(c.UserContext(), id, entities.BalanceUpdate{
		Coins:  req.Coins,
		XP:     req.XP,
		Reason: req.Reason,
		Actor:  actor,
	})
	if err != nil {
		return s.adminFail(c, "update balance", err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "delete user", err)
	}
	s.log.Info("http: delete user", zap.Int64("user_id", id), zap.String("actor", adminIdentity(c).Login))
	if err := s.admin.DeleteUser(c.UserContext(), id); err != nil {
		return s.adminFail(c, "delete user", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	tasks, err := s.admin.ListTasks(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list tasks", err)
	}
	return c.JSON(tasks)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "update task", err)
	}
	var req taskRequest
	if err := parseBody(c, &req); err != nil {
		return s.adminFail(c, "update task", err)
	}
	task, err := s.admin.UpdateTask(c.UserContext(), id, entities.TaskUpdate{
		Title:            req.Title,
		Description:      req.Description,
		CoinsReward:      req.CoinsReward,
		VerificationType: entities.VerificationType(req.VerificationType),
		VerificationData: req.VerificationData,
	})
	if err != nil {
		return s.adminFail(c, "update task", err)
	}
	return c.JSON(fiber.Map{"success": true, "task": task})
}

func (s *Server) listPrizes(c *fiber.Ctx) error {
	prizes, err := s.admin.ListPrizes(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list prizes", err)
	}
	return c.JSON(prizes)
}

func (s *Server) updatePrize(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "update prize", err)
	}
	var req prizeRequest
	if err := parseBody(c, &req); err != nil {
		return s.adminFail(c, "update prize", err)
	}
	err = s.admin.UpdatePrize(c.UserContext(), &entities.ShopItem{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Icon:        req.Icon,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return s.adminFail(c, "update prize", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) listPurchases(c *fiber.Ctx) error {
	purchases, err := s.admin.ListPurchases(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list purchases", err)
	}
	return c.JSON(purchases)
}

func (s *Server) listReferrals(c *fiber.Ctx) error {
	referrals, err := s.admin.ListReferrals(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list referrals", err)
	}
	return c.JSON(referrals)
}

func (s *Server) listReviews(c *fiber.Ctx) error {
	var status *entities.ReviewStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		st := entities.ReviewStatus(raw)
		status = &st
	}
	reviews, err := s.reviews.List(c.UserContext(), status)
	if err != nil {
		return s.adminFail(c, "list reviews", err)
	}
	return c.JSON(reviews)
}

func (s *Server) countReviews(c *fiber.Ctx) error {
	count, err := s.reviews.CountPending(c.UserContext())
	if err != nil {
		return s.adminFail(c, "count reviews", err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (s *Server) approveReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "approve review", err)
	}
	decision, err := s.reviews.Approve(c.UserContext(), id, adminIdentity(c).Login)
	if err != nil {
		return s.adminFail(c, "approve review", err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"credited": decision.Credited,
		"reward":   decision.Reward,
		"coins":    decision.Coins,
	})
}

func (s *Server) rejectReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return s.adminFail(c, "reject review", err)
	}
	var req rejectRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return s.adminFail(c, "reject review", err)
		}
	}
	if _, err := s.reviews.Reject(c.UserContext(), id, adminIdentity(c).Login, req.Comment); err != nil {
		return s.adminFail(c, "reject review", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) listStaffCodes(c *fiber.Ctx) error {
	codes, err := s.admin.ListStaffCodes(c.UserContext())
	if err != nil {
		return s.adminFail(c, "list staff codes", err)
	}
	return c.JSON(codes)
}

func (s *Server) createStaffCode(c *fiber.Ctx) error {
	var req staffCodeRequest
	if err := parseBody(c, &req); err != nil {
		return s.adminFail(c, "create staff code", err)
	}
	code := &entities.StaffCode{
		Code:       req.Code,
		TaskDay:    req.TaskDay,
		UsageLimit: req.UsageLimit,
	}
	if err := s.admin.CreateStaffCode(c.UserContext(), code); err != nil {
		return s.adminFail(c, "create staff code", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "code": code})
}
