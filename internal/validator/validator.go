// Package validator はgo-playground/validatorをラップし、
// ドメイン固有のバリデーションタグとエラーメッセージの整形を提供する。
package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/security"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	global        *validator.Validate
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// エラーメッセージ
const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

// New はカスタムタグを登録したvalidator.Validateを生成する。
//   - calendar_date: YYYY-MM-DD形式の実在する日付
//   - clock_time: HH:MM形式の時刻
//   - public_url: 内部ネットワークを指さないhttp(s)のURL
//   - username: 英数字とアンダースコアのみ
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("calendar_date", validateCalendarDate)
	_ = v.RegisterValidation("clock_time", validateClockTime)
	_ = v.RegisterValidation("public_url", validatePublicURL)
	_ = v.RegisterValidation("username", validateUsername)
	v.RegisterStructValidation(validateDateRange, model.EventPermissionInput{})
	return v
}

// SetValidator はパッケージで使用するValidateを差し替える。
func SetValidator(v *validator.Validate) {
	global = v
}

// Validator は現在のValidateを返す。
func Validator() *validator.Validate {
	return global
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

func validateClockTime(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(timeLayout) {
		return false
	}
	_, err := time.Parse(timeLayout, s)
	return err == nil
}

func validatePublicURL(fl validator.FieldLevel) bool {
	return security.ValidatePublicURL(fl.Field().String()) == nil
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// validateDateRange は終了日が開始日より前でないことを検証する。
// 日付の形式エラーはフィールドレベルのcalendar_dateで報告されるため、ここでは無視する。
func validateDateRange(sl validator.StructLevel) {
	in := sl.Current().Interface().(model.EventPermissionInput)
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(in.EndDate, "EndDate", "end_date", "date_range", "")
	}
}

// Validate は構造体を検証し、最初の違反を人が読めるエラーとして返す。
// 違反がない場合はnilを返す。
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return fmt.Errorf("%s: %w", ErrUnknownValidation, err)
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = maxMessage(ve)
	case "min":
		msg = minMessage(ve)
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "calendar_date":
		msg = "Date must be a valid calendar date (YYYY-MM-DD)"
	case "clock_time":
		msg = "Time must be in HH:MM format"
	case "public_url":
		msg = "URL must be a public http(s) address"
	case "username":
		msg = "Username may only contain letters, digits and underscore"
	case "date_range":
		msg = "End date must not be before start date"
	case "oneof":
		msg = fmt.Sprintf("Value must be one of [%s]", ve.Param())
	default:
		msg = ErrInvalidFormat
	}
	return errors.New(msg + ": " + ve.Namespace())
}

// maxMessage は数値と文字列でmaxのメッセージを切り替える。
func maxMessage(ve validator.FieldError) string {
	if isNumeric(ve) {
		return ErrFieldExceedsMaxVal
	}
	return ErrFieldExceedsMaxLen
}

func minMessage(ve validator.FieldError) string {
	if isNumeric(ve) {
		return ErrFieldBelowMinVal
	}
	return ErrFieldBelowMinLen
}

func isNumeric(ve validator.FieldError) bool {
	switch ve.Kind().String() {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return true
	default:
		return false
	}
}
