package models

import "time"

// Flash request defaults applied when a form field is omitted
const (
	DefaultDevicePort    = 23
	DefaultBaudRate      = 115200
	DefaultWaitTime      = 30
	DefaultEraseFlash    = false
	DefaultVerifyFlash   = false
	DefaultPrepareDevice = true
)

// Operation names carried by OperationEvent
const (
	OpPrepare = "prepare"
	OpFlash   = "flash"
)

// FlashRequest holds the parameters of a single flashing run
type FlashRequest struct {
	DeviceIP      string `form:"device_ip" validate:"required"`
	DevicePort    int    `form:"device_port" validate:"min=1,max=65535"`
	FirmwareFile  string `form:"firmware_file" validate:"required"`
	BaudRate      int    `form:"baud_rate" validate:"min=1"`
	EraseFlash    bool   `form:"erase_flash"`
	VerifyFlash   bool   `form:"verify_flash"`
	PrepareDevice bool   `form:"prepare_device"`
	WaitTime      int    `form:"wait_time" validate:"min=0"` // seconds
}

// NewFlashRequest returns a request with every optional field at its default
func NewFlashRequest() FlashRequest {
	return FlashRequest{
		DevicePort:    DefaultDevicePort,
		BaudRate:      DefaultBaudRate,
		EraseFlash:    DefaultEraseFlash,
		VerifyFlash:   DefaultVerifyFlash,
		PrepareDevice: DefaultPrepareDevice,
		WaitTime:      DefaultWaitTime,
	}
}

// PrepareRequest asks the companion device to enter update mode
type PrepareRequest struct {
	DeviceIP string `form:"device_ip" validate:"required"`
}

// OperationResponse is the JSON body returned by /prepare and /flash
type OperationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OperationEvent describes the outcome of one prepare or flash call
type OperationEvent struct {
	Operation  string    `json:"operation"`
	DeviceIP   string    `json:"device_ip"`
	Firmware   string    `json:"firmware,omitempty"`
	Success    bool      `json:"success"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
