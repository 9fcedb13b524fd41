// Package prayer validates and submits prayer requests.
package prayer

import (
	"context"
	"errors"
	"strings"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
	"github.com/Its-donkey/shrine-live/logging"
)

// Notices shown after a submit attempt.
var (
	NoticeRequired = model.Notice{Tone: model.NoticeError, Key: "prayer.notice.required", Message: "Please fill in all required fields"}
	NoticeSuccess  = model.Notice{Tone: model.NoticeSuccess, Key: "prayer.notice.success", Message: "Prayer request submitted successfully!"}
	NoticeFailure  = model.Notice{Tone: model.NoticeError, Key: "prayer.notice.failure", Message: "Failed to submit prayer. Please try again."}
)

// ErrRejected reports a reply of {"success": false} from the prayer service.
var ErrRejected = errors.New("prayer: request rejected")

// ErrUnavailable is returned when no service is configured.
var ErrUnavailable = errors.New("prayer: service unavailable")

// Service creates prayer requests.
type Service interface {
	CreatePrayer(ctx context.Context, req model.PrayerRequest) error
}

// ValidatePrayerForm flags missing required fields. Whitespace-only values
// count as missing; email is free text and never flagged.
func ValidatePrayerForm(form model.PrayerRequest) model.PrayerFormErrors {
	return model.PrayerFormErrors{
		Name:   strings.TrimSpace(form.Name) == "",
		Prayer: strings.TrimSpace(form.Prayer) == "",
	}
}

// Controller runs the submit and reset transitions of the prayer form.
type Controller struct {
	service Service
	logger  *logging.Logger
}

// NewController wires a controller to service.
func NewController(service Service, logger *logging.Logger) *Controller {
	return &Controller{service: service, logger: logger}
}

// Submit validates state.Form and, when valid, sends it to the service.
//
// Invalid input never reaches the service and leaves the form as entered.
// Success clears every field and moves to the confirmation view. Failure
// keeps the entered values so nothing needs retyping.
func (c *Controller) Submit(ctx context.Context, state *model.PrayerFormState) model.Notice {
	errs := ValidatePrayerForm(state.Form)
	state.Errors = errs
	if errs.Any() {
		notice := NoticeRequired
		state.Notice = &notice
		return notice
	}

	req := model.PrayerRequest{
		Name:   strings.TrimSpace(state.Form.Name),
		Email:  strings.TrimSpace(state.Form.Email),
		Prayer: strings.TrimSpace(state.Form.Prayer),
	}

	var err error
	if c.service == nil {
		err = ErrUnavailable
	} else {
		err = c.service.CreatePrayer(ctx, req)
	}
	log := c.logger.WithRequestID(logging.RequestID(ctx)).
		WithCategory("prayer").
		WithField("has_email", req.Email != "")
	if err != nil {
		log.Error("create prayer request", err)
		state.Submitted = false
		notice := NoticeFailure
		state.Notice = &notice
		return notice
	}

	log.Info("prayer request submitted")
	state.Submitted = true
	state.Form = model.PrayerRequest{}
	state.Errors = model.PrayerFormErrors{}
	notice := NoticeSuccess
	state.Notice = &notice
	return notice
}

// Reset returns from the confirmation view to an empty form.
func (c *Controller) Reset(state *model.PrayerFormState) {
	*state = model.PrayerFormState{}
}
