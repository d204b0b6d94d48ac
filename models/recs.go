package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RecsPage /v2/recs/core 响应，只解析需要的字段。
// results 逐条解码，单条格式异常不影响同页其他用户。
type RecsPage struct {
	Data *struct {
		Results []json.RawMessage `json:"results"`
	} `json:"data"`
}

// Results 返回可解码的结果列表，缺少 data 或 results 时为空，
// 第二个返回值为被跳过的条目数
func (p *RecsPage) Results() ([]RecsResult, int) {
	if p == nil || p.Data == nil {
		return nil, 0
	}
	results := make([]RecsResult, 0, len(p.Data.Results))
	skipped := 0
	for _, raw := range p.Data.Results {
		var r RecsResult
		if err := json.Unmarshal(raw, &r); err != nil {
			skipped++
			continue
		}
		results = append(results, r)
	}
	return results, skipped
}

// RecsResult 推荐列表中的一项，type 为 "user" 时 User 有效
type RecsResult struct {
	Type string    `json:"type"`
	User *RecsUser `json:"user"`
}

// RecsUser 用户字段按文本读取：数字、布尔值保留原始写法，null 视为空
type RecsUser struct {
	ID        string
	Name      string
	Bio       string
	BirthDate string
	Photos    []RecsPhoto
}

type RecsPhoto struct {
	URL string
}

func (u *RecsUser) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage   `json:"_id"`
		Name      json.RawMessage   `json:"name"`
		Bio       json.RawMessage   `json:"bio"`
		BirthDate json.RawMessage   `json:"birth_date"`
		Photos    []json.RawMessage `json:"photos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.ID = looseString(raw.ID)
	u.Name = looseString(raw.Name)
	u.Bio = looseString(raw.Bio)
	u.BirthDate = looseString(raw.BirthDate)
	u.Photos = make([]RecsPhoto, 0, len(raw.Photos))
	for _, p := range raw.Photos {
		var photo struct {
			URL json.RawMessage `json:"url"`
		}
		// 非对象的照片项仍计入数量，只是没有URL
		_ = json.Unmarshal(p, &photo)
		u.Photos = append(u.Photos, RecsPhoto{URL: looseString(photo.URL)})
	}
	return nil
}

// looseString 字符串取其值；数字、布尔值取原文；null、缺失、对象、数组为空
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return strings.TrimSpace(string(raw))
	}
}
