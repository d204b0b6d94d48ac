package services

import (
	"strings"
	"time"

	"recs_collector/logger"
	"recs_collector/models"
)

// NormalizeBio 将换行符逐个替换为空格，长度不变
func NormalizeBio(bio string) string {
	bio = strings.ReplaceAll(bio, "\n", " ")
	return strings.ReplaceAll(bio, "\r", " ")
}

// ExtractUsers 从一页推荐结果中提取未采集过的用户并加入 state，
// 返回本页新增的用户（按出现顺序）。缺少 data.results 视为空页。
func ExtractUsers(page *models.RecsPage, state *RunState, now time.Time) []models.UserRecord {
	results, skipped := page.Results()
	if skipped > 0 {
		logger.Warn("跳过无法解析的推荐条目", "skipped", skipped)
	}

	var added []models.UserRecord
	for _, result := range results {
		if result.Type != "user" || result.User == nil {
			continue
		}
		user := result.User
		if user.ID == "" || state.Seen(user.ID) {
			continue
		}

		record := toUserRecord(user, now)
		if state.Add(record) {
			added = append(added, record)
		}
	}
	return added
}

func toUserRecord(user *models.RecsUser, now time.Time) models.UserRecord {
	urls := make([]string, 0, len(user.Photos))
	for _, p := range user.Photos {
		if p.URL != "" {
			urls = append(urls, p.URL)
		}
	}

	return models.UserRecord{
		UserID:     user.ID,
		Name:       user.Name,
		Age:        CalculateAge(user.BirthDate, now),
		Bio:        NormalizeBio(user.Bio),
		BirthDate:  user.BirthDate,
		PhotoCount: len(user.Photos),
		PhotoURLs:  urls,
	}
}
