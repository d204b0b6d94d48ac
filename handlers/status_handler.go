package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "recs_collector/docs" // 导入 swagger 文档
	"recs_collector/models"
	"recs_collector/services"
	"recs_collector/utils"
)

const (
	defaultUserLimit = 20
	maxUserLimit     = 500
)

// StatusHandler godoc
// @Summary 采集运行状态
// @Description 返回当前运行的请求数、已采集用户数、输出文件和结束原因
// @Tags 状态
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.RunStatus} "成功"
// @Router /api/status [get]
func StatusHandler(w http.ResponseWriter, r *http.Request, state *services.RunState) {
	utils.WriteSuccessResponse(w, state.Snapshot())
}

// UsersHandler godoc
// @Summary 已采集用户
// @Description 按发现顺序返回已采集的用户
// @Tags 状态
// @Produce json
// @Param limit query int false "返回条数，默认20，最大500"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/users [get]
func UsersHandler(w http.ResponseWriter, r *http.Request, state *services.RunState) {
	limit, ok := utils.ParseLimit(r.URL.Query().Get("limit"), defaultUserLimit, maxUserLimit)
	if !ok {
		utils.WriteErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, map[string]interface{}{
			"param": "limit",
		})
		return
	}

	users := state.Users(limit)
	if len(users) == 0 {
		utils.WriteErrorResponse(w, http.StatusOK, models.CodeNoUserData, []models.UserRecord{})
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"total": state.Count(),
		"users": users,
	})
}

// RegisterRoutes 注册只读状态接口
func RegisterRoutes(r chi.Router, state *services.RunState) {
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			StatusHandler(w, r, state)
		})
		r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
			UsersHandler(w, r, state)
		})
	})
}
