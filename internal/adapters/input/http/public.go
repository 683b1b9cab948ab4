package http

import (
	"strconv"
	"strings"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/mapper"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) getUser(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("platformId"), 10, 64)
	if err != nil {
		return s.fail(c, "get user", exceptions.ErrInvalidPlatformRef)
	}
	platform, err := entities.ParsePlatform(c.Query("platform"))
	if err != nil {
		return s.fail(c, "get user", err)
	}
	ref := entities.PlatformRef{Platform: platform, ID: id}

	user, progress, err := s.users.GetProfile(c.UserContext(), ref)
	if err != nil {
		return s.fail(c, "get user", err)
	}
	return c.JSON(fiber.Map{
		"user":  mapper.User(user, ref),
		"tasks": mapper.Tasks(progress),
	})
}

func (s *Server) completeTask(c *fiber.Ctx) error {
	var req completeTaskRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, "complete task", err)
	}
	sub, err := req.submission()
	if err != nil {
		return s.fail(c, "complete task", err)
	}

	s.log.Info("http: complete task", zap.Int64("platform_id", sub.User.ID), zap.Int("task_day", sub.TaskDay))
	result, err := s.completion.CompleteTask(c.UserContext(), sub)
	if err != nil {
		return s.fail(c, "complete task", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"coins":   result.Coins,
		"reward":  result.Reward,
	})
}

func (s *Server) submitSurvey(c *fiber.Ctx) error {
	var req surveyRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, "submit survey", err)
	}
	ref, err := req.ref()
	if err != nil {
		return s.fail(c, "submit survey", err)
	}

	s.log.Info("http: submit survey", zap.Int64("platform_id", ref.ID), zap.Int("task_day", req.TaskDay))
	result, err := s.completion.CompleteTask(c.UserContext(), entities.Submission{
		User:    ref,
		TaskDay: req.TaskDay,
		Kind:    entities.VerificationSurvey,
		Payload: entities.Payload(req.Answers),
	})
	if err != nil {
		return s.fail(c, "submit survey", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"coins":   result.Coins,
		"reward":  result.Reward,
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, "register", err)
	}
	ref, err := req.ref()
	if err != nil {
		return s.fail(c, "register", err)
	}

	s.log.Info("http: register", zap.String("platform", string(ref.Platform)), zap.Int64("platform_id", ref.ID))
	user, err := s.users.Register(c.UserContext(), ref, req.profile())
	if err != nil {
		return s.fail(c, "register", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    mapper.User(user, ref),
	})
}

func (s *Server) listShop(c *fiber.Ctx) error {
	items, err := s.shop.ListItems(c.UserContext())
	if err != nil {
		return s.fail(c, "list shop", err)
	}
	return c.JSON(items)
}

func (s *Server) purchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, "purchase", err)
	}
	ref, err := req.ref()
	if err != nil {
		return s.fail(c, "purchase", err)
	}

	s.log.Info("http: purchase", zap.Int64("platform_id", ref.ID), zap.Int64("item_id", int64(req.ItemID)))
	result, err := s.shop.Purchase(c.UserContext(), ref, int64(req.ItemID))
	if err != nil {
		return s.fail(c, "purchase", err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"coins":       result.Coins,
		"purchase_id": result.Purchase,
	})
}

func (s *Server) leaderboard(c *fiber.Ctx) error {
	entries, err := s.users.Leaderboard(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return s.fail(c, "leaderboard", err)
	}
	return c.JSON(entries)
}

func (s *Server) uploadReview(c *fiber.Ctx) error {
	fields := platformFields{Platform: c.FormValue("platform")}
	if err := fields.PlatformID.UnmarshalJSON([]byte(c.FormValue("platformId"))); err != nil {
		return s.fail(c, "upload review", err)
	}
	if err := fields.TelegramID.UnmarshalJSON([]byte(c.FormValue("telegramId"))); err != nil {
		return s.fail(c, "upload review", err)
	}
	if err := fields.VKID.UnmarshalJSON([]byte(c.FormValue("vkId"))); err != nil {
		return s.fail(c, "upload review", err)
	}
	ref, err := fields.ref()
	if err != nil {
		return s.fail(c, "upload review", err)
	}
	taskDay, err := strconv.Atoi(strings.TrimSpace(c.FormValue("taskDay")))
	if err != nil {
		return s.fail(c, "upload review", exceptions.ErrInvalidInput)
	}

	header, err := c.FormFile("photo")
	if err != nil {
		return s.fail(c, "upload review", exceptions.ErrInvalidPhoto)
	}
	file, err := header.Open()
	if err != nil {
		return s.fail(c, "upload review", err)
	}
	defer file.Close()

	s.log.Info("http: upload review",
		zap.Int64("platform_id", ref.ID),
		zap.Int("task_day", taskDay),
		zap.Int64("size", header.Size),
	)
	review, err := s.reviews.Submit(c.UserContext(), ref, taskDay, entities.Photo{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return s.fail(c, "upload review", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"review":  review,
	})
}
