package services

import (
	"strings"
	"time"

	"recs_collector/models"
)

// 出生日期支持的格式，time.Parse 会自动接受秒后的小数部分
var birthDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseBirthDate(s string) (time.Time, bool) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalculateAge 根据出生日期计算 now 时刻的整岁年龄，无法解析时返回 AgeUnknown
func CalculateAge(birthDate string, now time.Time) models.Age {
	birthDate = strings.TrimSpace(birthDate)
	if birthDate == "" || birthDate == models.AgeUnknownText {
		return models.AgeUnknown
	}

	birth, ok := parseBirthDate(birthDate)
	if !ok {
		return models.AgeUnknown
	}

	age := now.Year() - birth.Year()
	// 今年生日还没到
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return models.Age(age)
}
