package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koios/zigstar-flasher/internal/flasher"
	"github.com/koios/zigstar-flasher/pkg/models"
	"go.uber.org/zap"
)

// UpdateModePath is the companion device endpoint that switches the radio into its bootloader
const UpdateModePath = "/switch/zigbee_update/turn_on"

const (
	defaultCompanionTimeout = 10 * time.Second
	publishTimeout          = 2 * time.Second
)

// Publisher receives the outcome of every prepare and flash call
type Publisher interface {
	Publish(ctx context.Context, event *models.OperationEvent) error
}

// Controller prepares companion devices and runs the flashing utility.
// It keeps no per-request state, so one instance serves concurrent requests.
type Controller struct {
	httpClient  *http.Client
	executor    flasher.Executor
	firmwareDir string
	publisher   Publisher
	logger      *zap.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithHTTPClient replaces the client used to reach companion devices
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = client
	}
}

// WithCompanionTimeout sets the timeout for the update-mode request
func WithCompanionTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithPublisher enables outcome notifications
func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// New creates a controller that resolves firmware under firmwareDir and flashes via executor
func New(executor flasher.Executor, firmwareDir string, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		httpClient:  &http.Client{Timeout: defaultCompanionTimeout},
		executor:    executor,
		firmwareDir: firmwareDir,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prepare puts the device behind deviceIP into ZigBee update mode.
// It returns true only when the companion answers with status 200.
func (c *Controller) Prepare(ctx context.Context, deviceIP string) bool {
	start := time.Now()
	ok := c.prepare(ctx, deviceIP)

	c.publish(ctx, &models.OperationEvent{
		Operation:  models.OpPrepare,
		DeviceIP:   deviceIP,
		Success:    ok,
		DurationMS: time.Since(start).Milliseconds(),
		FinishedAt: time.Now().UTC(),
	})

	return ok
}

func (c *Controller) prepare(ctx context.Context, deviceIP string) bool {
	url := fmt.Sprintf("http://%s%s", deviceIP, UpdateModePath)
	c.logger.Info("Putting device into ZigBee update mode",
		zap.String("device_ip", deviceIP),
		zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		c.logger.Error("Invalid companion device address",
			zap.String("device_ip", deviceIP),
			zap.Error(err))
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Error putting device in update mode",
			zap.String("device_ip", deviceIP),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Failed to put device in update mode",
			zap.String("device_ip", deviceIP),
			zap.Int("status", resp.StatusCode))
		return false
	}

	c.logger.Info("Device put into ZigBee update mode", zap.String("device_ip", deviceIP))
	return true
}

// Flash runs the flashing utility for req and reports whether it exited with status 0.
// A firmware file that does not resolve fails the call before any process is started.
func (c *Controller) Flash(ctx context.Context, req models.FlashRequest) bool {
	start := time.Now()
	event := &models.OperationEvent{
		Operation: models.OpFlash,
		DeviceIP:  req.DeviceIP,
		Firmware:  req.FirmwareFile,
	}

	outcome, err := c.flash(ctx, req)
	if outcome != nil {
		code := outcome.ExitCode
		event.ExitCode = &code
	}
	event.Success = err == nil
	event.DurationMS = time.Since(start).Milliseconds()
	event.FinishedAt = time.Now().UTC()
	c.publish(ctx, event)

	return event.Success
}

func (c *Controller) flash(ctx context.Context, req models.FlashRequest) (*flasher.ExitOutcome, error) {
	firmwarePath, err := ResolveFirmware(c.firmwareDir, req.FirmwareFile)
	if err != nil {
		c.logger.Error("Firmware file unavailable, not flashing",
			zap.String("device_ip", req.DeviceIP),
			zap.String("firmware_file", req.FirmwareFile),
			zap.Error(err))
		return nil, err
	}

	args := flasher.BuildArgs(req, firmwarePath)

	c.logger.Info("Starting firmware flash",
		zap.String("device_ip", req.DeviceIP),
		zap.Int("device_port", req.DevicePort),
		zap.String("firmware", firmwarePath),
		zap.Int("baud_rate", req.BaudRate),
		zap.Int("wait_time", req.WaitTime),
		zap.Bool("erase", req.EraseFlash),
		zap.Bool("verify", req.VerifyFlash),
		zap.Bool("prepare", req.PrepareDevice))

	outcome, err := c.executor.Run(ctx, args)
	if err != nil {
		c.logger.Error("Error executing flash",
			zap.String("device_ip", req.DeviceIP),
			zap.Error(err))
		return &outcome, err
	}

	if err := outcome.Err(); err != nil {
		c.logger.Error("Firmware flash failed",
			zap.String("device_ip", req.DeviceIP),
			zap.Int("exit_code", outcome.ExitCode),
			zap.String("output", outcome.Output),
			zap.Error(err))
		return &outcome, err
	}

	c.logger.Info("Firmware flash completed",
		zap.String("device_ip", req.DeviceIP),
		zap.String("firmware", firmwarePath))
	return &outcome, nil
}

func (c *Controller) publish(ctx context.Context, event *models.OperationEvent) {
	if c.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := c.publisher.Publish(pubCtx, event); err != nil {
		c.logger.Warn("Failed to publish operation event",
			zap.String("operation", event.Operation),
			zap.String("device_ip", event.DeviceIP),
			zap.Error(err))
	}
}
