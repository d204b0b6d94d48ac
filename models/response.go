package models

// 响应码定义
const (
	// 成功
	CodeSuccess = 0

	// 客户端错误 (1000-1999)
	CodeInvalidParams = 1000 // 无效的参数
	CodeNoUserData    = 1004 // 尚未采集到用户

	// 服务端错误 (2000-2999)
	CodeServerError = 2000 // 服务器内部错误
)

// 错误码对应的消息
var CodeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeInvalidParams: "无效的参数",
	CodeNoUserData:    "尚未采集到用户",
	CodeServerError:   "服务器内部错误",
}

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// RunStatus 采集运行状态
type RunStatus struct {
	State       string `json:"state" example:"running"`
	StopReason  string `json:"stop_reason,omitempty" example:"non_success"`
	Requests    int    `json:"requests" example:"3"`
	UniqueUsers int    `json:"unique_users" example:"42"`
	OutputFile  string `json:"output_file" example:"tinder_users_20240614_101500.csv"`
	StartedAt   string `json:"started_at" example:"2024-06-14T10:15:00Z"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Code:    CodeSuccess,
		Message: CodeMessages[CodeSuccess],
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, data interface{}) APIResponse {
	message, exists := CodeMessages[code]
	if !exists {
		message = "未知错误"
	}
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
