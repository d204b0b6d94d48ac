package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recs_collector/config"
	"recs_collector/logger"
	"recs_collector/models"
)

// StatusTransportError 网络层失败时返回的状态码
const StatusTransportError = 0

const (
	recsPath    = "/v2/recs/core"
	profilePath = "/v2/profile/user"
	metaPath    = "/v2/meta"
)

// FetchResult 单次请求结果：成功时 Page 有效，否则 Body 为原始响应或错误描述
type FetchResult struct {
	Status int
	Page   *models.RecsPage
	Body   string
	Err    error
}

// OK 状态码为200且JSON解析成功
func (r FetchResult) OK() bool {
	return r.Status == http.StatusOK && r.Page != nil && r.Err == nil
}

// PageFetcher 获取一页推荐结果
type PageFetcher interface {
	FetchRecs(ctx context.Context) FetchResult
}

// RecsClient 封装对推荐API的HTTP访问
type RecsClient struct {
	BaseURL    string
	AuthToken  string
	UserAgent  string
	Locale     string
	HTTPClient *http.Client
}

// NewRecsClient 根据配置创建客户端，超时固定为 api.timeout_sec
func NewRecsClient(cfg *config.Config) *RecsClient {
	timeout := time.Duration(cfg.API.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second // 默认超时
	}
	return &RecsClient{
		BaseURL:    cfg.API.BaseURL,
		AuthToken:  cfg.API.AuthToken,
		UserAgent:  cfg.API.UserAgent,
		Locale:     cfg.API.Locale,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// newRequest 构建带认证头的请求
func (c *RecsClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.BaseURL == "" {
		return nil, errors.New("client BaseURL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Auth-Token", c.AuthToken)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// FetchRecs 请求一页推荐用户，不重试；任何失败都通过 FetchResult 返回
func (c *RecsClient) FetchRecs(ctx context.Context) FetchResult {
	query := url.Values{}
	query.Set("locale", c.Locale)

	req, err := c.newRequest(ctx, http.MethodGet, recsPath+"?"+query.Encode(), nil)
	if err != nil {
		return FetchResult{Status: StatusTransportError, Body: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Error("推荐请求失败", "error", err)
		return FetchResult{Status: StatusTransportError, Body: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("读取推荐响应失败", "status_code", resp.StatusCode, "error", err)
		return FetchResult{Status: StatusTransportError, Body: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return FetchResult{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var page models.RecsPage
	if err := json.Unmarshal(bodyBytes, &page); err != nil {
		logger.Error("解析推荐响应失败", "error", err)
		return FetchResult{
			Status: resp.StatusCode,
			Body:   string(bodyBytes),
			Err:    fmt.Errorf("decoding recs response: %w", err),
		}
	}

	return FetchResult{Status: resp.StatusCode, Page: &page}
}

// postJSON 发送JSON请求，只关心是否成功
func (c *RecsClient) postJSON(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
