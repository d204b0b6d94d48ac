package docs

// @title 推荐采集状态 API
// @version 1.0
// @description 推荐用户采集任务的只读运行状态接口

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http
