package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/koios/zigstar-flasher/pkg/models"
)

const maxFormBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report form field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes a form field that could not be decoded or failed validation
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// parseFormBody reads a url-encoded body regardless of the declared content type
func parseFormBody(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	return values, nil
}

// decodePrepareRequest extracts and validates a PrepareRequest
func decodePrepareRequest(values url.Values) (models.PrepareRequest, error) {
	req := models.PrepareRequest{
		DeviceIP: strings.TrimSpace(values.Get("device_ip")),
	}
	if err := validateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// decodeFlashRequest extracts a FlashRequest, applying defaults for omitted fields
func decodeFlashRequest(values url.Values) (models.FlashRequest, error) {
	req := models.NewFlashRequest()
	req.DeviceIP = strings.TrimSpace(values.Get("device_ip"))
	req.FirmwareFile = strings.TrimSpace(values.Get("firmware_file"))

	ints := []struct {
		field string
		dst   *int
	}{
		{"device_port", &req.DevicePort},
		{"baud_rate", &req.BaudRate},
		{"wait_time", &req.WaitTime},
	}
	for _, f := range ints {
		if err := formInt(values, f.field, f.dst); err != nil {
			return req, err
		}
	}

	bools := []struct {
		field string
		dst   *bool
	}{
		{"erase_flash", &req.EraseFlash},
		{"verify_flash", &req.VerifyFlash},
		{"prepare_device", &req.PrepareDevice},
	}
	for _, f := range bools {
		if err := formBool(values, f.field, f.dst); err != nil {
			return req, err
		}
	}

	if err := validateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// formInt overwrites dst when field is present and non-empty
func formInt(values url.Values, field string, dst *int) error {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return &FieldError{Field: field, Message: fmt.Sprintf("%q is not an integer", raw)}
	}
	*dst = n
	return nil
}

// formBool overwrites dst when field is present and non-empty.
// HTML checkboxes submit "on", so the checkbox spellings are accepted alongside ParseBool's.
func formBool(values url.Values, field string, dst *bool) error {
	raw := strings.ToLower(strings.TrimSpace(values.Get(field)))
	switch raw {
	case "":
		return nil
	case "on", "yes":
		*dst = true
		return nil
	case "off", "no":
		*dst = false
		return nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return &FieldError{Field: field, Message: fmt.Sprintf("%q is not a boolean", raw)}
	}
	*dst = b
	return nil
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &FieldError{Field: fe.Field(), Message: "is required"}
	case "min":
		return &FieldError{Field: fe.Field(), Message: fmt.Sprintf("must be at least %s", fe.Param())}
	case "max":
		return &FieldError{Field: fe.Field(), Message: fmt.Sprintf("must be at most %s", fe.Param())}
	default:
		return &FieldError{Field: fe.Field(), Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}
