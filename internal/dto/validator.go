package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Joy2225/timetable/internal/timetable"
)

// RegisterValidations 注册课表相关的自定义校验标签
//   - timeofday: HH:MM 或 HH:MM:SS
//   - daykey:    MON … SUN
//   - keypart:   课表键的组成部分，非空且不含下划线
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("timeofday", validateTimeOfDay); err != nil {
		return err
	}
	if err := v.RegisterValidation("daykey", validateDayKey); err != nil {
		return err
	}
	return v.RegisterValidation("keypart", validateKeyPart)
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := timetable.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func validateDayKey(fl validator.FieldLevel) bool {
	_, ok := timetable.ParseDayKey(fl.Field().String())
	return ok
}

func validateKeyPart(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && len(s) <= 40 && !strings.Contains(s, "_")
}
