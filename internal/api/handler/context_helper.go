package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Joy2225/timetable/pkg/response"
)

// widgetIDMaxLen 与 widgets.widget_id 列宽一致
const widgetIDMaxLen = 64

// MustGetParam 读取非空路径参数；缺失时写入 400 响应，调用方应在 ok=false 时直接 return。
func MustGetParam(c *gin.Context, name, message string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		response.BadRequest(c, 10001, message)
		return "", false
	}
	return v, true
}

// MustGetWidgetID 读取挂件 ID，长度超出列宽时视为参数错误
func MustGetWidgetID(c *gin.Context) (string, bool) {
	id, ok := MustGetParam(c, "id", "挂件ID不能为空")
	if !ok {
		return "", false
	}
	if len(id) > widgetIDMaxLen {
		response.BadRequest(c, 10001, "挂件ID过长")
		return "", false
	}
	return id, true
}

// MustGetDay 读取星期参数并统一为大写
func MustGetDay(c *gin.Context) (string, bool) {
	day, ok := MustGetParam(c, "day", "星期不能为空")
	if !ok {
		return "", false
	}
	return strings.ToUpper(day), true
}
