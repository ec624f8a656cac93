package flasher

import (
	"strconv"

	"github.com/koios/zigstar-flasher/pkg/models"
)

// Command-line flags understood by zigstar-flasher
const (
	FlagDeviceIP    = "--device-ip"
	FlagDevicePort  = "--device-port"
	FlagFirmware    = "--firmware"
	FlagBaudRate    = "--baud-rate"
	FlagWaitTime    = "--wait-time"
	FlagErase       = "--erase"
	FlagVerify      = "--verify"
	FlagSkipPrepare = "--skip-prepare"
)

// BuildArgs translates a flash request into the utility's argument list.
// firmwarePath must already be resolved against the firmware directory.
func BuildArgs(req models.FlashRequest, firmwarePath string) []string {
	args := []string{
		FlagDeviceIP, req.DeviceIP,
		FlagDevicePort, strconv.Itoa(req.DevicePort),
		FlagFirmware, firmwarePath,
		FlagBaudRate, strconv.Itoa(req.BaudRate),
		FlagWaitTime, strconv.Itoa(req.WaitTime),
	}

	if req.EraseFlash {
		args = append(args, FlagErase)
	}
	if req.VerifyFlash {
		args = append(args, FlagVerify)
	}
	// Preparation already happened through /prepare, or the operator opted out.
	if !req.PrepareDevice {
		args = append(args, FlagSkipPrepare)
	}

	return args
}
