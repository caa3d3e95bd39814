package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		t.Fatalf("注册校验器失败: %v", err)
	}
	return v
}

func TestCreateTimetableRequest_Validation(t *testing.T) {
	v := newValidator(t)

	valid := CreateTimetableRequest{
		Year: "3rd", Section: "A", Semester: "5",
		Subjects: map[string]SubjectInput{"CS101": {Name: "Computer Science"}},
		Schedule: map[string][]string{"MON": {"CS101", "FREE"}},
	}
	if err := v.Struct(valid); err != nil {
		t.Fatalf("合法请求不应报错: %v", err)
	}

	badDay := valid
	badDay.Schedule = map[string][]string{"MONDAY": {"CS101"}}
	if err := v.Struct(badDay); err == nil {
		t.Error("非法星期应报错")
	}

	badKey := valid
	badKey.Section = "A_B"
	if err := v.Struct(badKey); err == nil {
		t.Error("含下划线的键组成部分应报错")
	}

	badSubject := valid
	badSubject.Subjects = map[string]SubjectInput{"CS101": {}}
	if err := v.Struct(badSubject); err == nil {
		t.Error("缺少课程名称应报错")
	}
}

func TestProjectionQuery_Validation(t *testing.T) {
	v := newValidator(t)

	for _, at := range []string{"", "09:30", "14:50:10"} {
		if err := v.Struct(ProjectionQuery{At: at}); err != nil {
			t.Errorf("at=%q 不应报错: %v", at, err)
		}
	}
	for _, at := range []string{"9h30", "25:00", "12:61", "+9:30", "-0:+5"} {
		if err := v.Struct(ProjectionQuery{At: at}); err == nil {
			t.Errorf("at=%q 应报错", at)
		}
	}
}
