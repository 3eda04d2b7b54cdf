package validate

import (
	"errors"
	"fmt"

	"paytrack/internal/core"
)

// Payment checks raw payment input and reports every failing field.
func Payment(title, description, amount string, photos int) error {
	ve := &core.ValidationErrors{}
	checkText(ve, title, description)
	if !Amount(amount) {
		ve.Add(core.NewValidationError(core.FieldAmount, amountMessage(amount)))
	}
	if !PhotoQuantity(photos, 0) {
		ve.Add(core.NewValidationError(core.FieldPhotos, fmt.Sprintf("at most %d photos are allowed", MaxPhotos)))
	}
	return ve.OrNil()
}

// Fields checks an already decoded payment, including its date and category.
func Fields(f core.PaymentFields) error {
	ve := &core.ValidationErrors{}
	checkText(ve, f.Title, f.Description)
	if err := core.ValidateAmount(f.Amount); err != nil {
		ve.Add(core.NewValidationError(core.FieldAmount, err.Error()))
	}
	if err := f.Date.Validate(); err != nil {
		ve.Add(core.NewValidationError(core.FieldDate, "date is required"))
	}
	if !f.Category.Valid() {
		ve.Add(core.NewValidationError(core.FieldCategory, fmt.Sprintf("unknown category %q", f.Category)))
	}
	if !PhotoQuantity(len(f.Photos), 0) {
		ve.Add(core.NewValidationError(core.FieldPhotos, fmt.Sprintf("at most %d photos are allowed", MaxPhotos)))
	}
	return ve.OrNil()
}

// Profile checks registration input.
func Profile(email, displayName, password string) error {
	ve := &core.ValidationErrors{}
	if !Email(email) {
		ve.Add(core.NewValidationError(core.FieldEmail, "email address is not valid"))
	}
	if !DisplayName(displayName) {
		ve.Add(core.NewValidationError(core.FieldDisplayName,
			fmt.Sprintf("display name is required and must be shorter than %d characters", MaxDisplayNameLength)))
	}
	if !Password(password) {
		ve.Add(core.NewValidationError(core.FieldPassword,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength)))
	}
	return ve.OrNil()
}

func checkText(ve *core.ValidationErrors, title, description string) {
	if !Title(title) {
		ve.Add(core.NewValidationError(core.FieldTitle,
			fmt.Sprintf("title is required and must be shorter than %d characters", MaxTitleLength)))
	}
	if !Description(description) {
		ve.Add(core.NewValidationError(core.FieldDescription,
			fmt.Sprintf("description is required and must be shorter than %d characters", MaxDescriptionLength)))
	}
}

func amountMessage(s string) string {
	_, err := core.ParseAmount(s)
	switch {
	case errors.Is(err, core.ErrNegativeAmount), errors.Is(err, core.ErrAmountTooLarge):
		return err.Error()
	default:
		return "amount must be a number such as 12.50"
	}
}
