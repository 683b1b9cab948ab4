package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultVKTimeout = 10 * time.Second

type VKOptions struct {
	Token      string
	APIVersion string
	APIURL     string
}

// VKNotifier sends community messages through the VK messages.send method.
type VKNotifier struct {
	token    string
	version  string
	endpoint string
	randomID func() int64
	log      *zap.Logger
}

var _ ports.Notifier = (*VKNotifier)(nil)

type vkResponse struct {
	Response json.RawMessage `json:"response"`
	Error    *vkError        `json:"error"`
}

type vkError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func NewVKNotifier(opts VKOptions, log *zap.Logger) (*VKNotifier, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if opts.Token == "" {
		return nil, errors.New("vk token is required")
	}
	return &VKNotifier{
		token:    opts.Token,
		version:  opts.APIVersion,
		endpoint: strings.TrimRight(opts.APIURL, "/") + "/messages.send",
		randomID: rand.Int64,
		log:      log,
	}, nil
}

func (n *VKNotifier) Notify(ctx context.Context, user *entities.User, text string) error {
	if user == nil || user.VKID == nil {
		return ErrUnreachable
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("user_id", strconv.FormatInt(*user.VKID, 10))
	args.Set("message", text)
	args.Set("random_id", strconv.FormatInt(n.randomID(), 10))
	args.Set("access_token", n.token)
	args.Set("v", n.version)

	timeout := defaultVKTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	agent := fiber.Post(n.endpoint).Timeout(timeout).Form(args)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("vk messages.send: %w", err)
	}

	var resp vkResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return fmt.Errorf("vk messages.send: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("vk messages.send: unexpected status %d", code)
	}
	if resp.Error != nil {
		return fmt.Errorf("vk messages.send: %d %s", resp.Error.Code, resp.Error.Message)
	}

	n.log.Debug("notify: vk message sent", zap.Int64("vk_id", *user.VKID))
	return nil
}
