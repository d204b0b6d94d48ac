package models

import (
	"math"
	"strconv"
	"strings"
)

// AgeUnknownText 无法计算年龄时写入的占位值
const AgeUnknownText = "N/A"

// PhotoURLSeparator 照片URL拼接分隔符
const PhotoURLSeparator = " | "

// Age 年龄（整岁），AgeUnknown 表示无法从出生日期推导。
// 出生日期在未来时年龄为负数，照常输出。
type Age int

const AgeUnknown Age = math.MinInt32

func (a Age) Known() bool {
	return a != AgeUnknown
}

func (a Age) String() string {
	if !a.Known() {
		return AgeUnknownText
	}
	return strconv.Itoa(int(a))
}

// MarshalJSON 未知年龄输出为 "N/A"
func (a Age) MarshalJSON() ([]byte, error) {
	if !a.Known() {
		return []byte(`"` + AgeUnknownText + `"`), nil
	}
	return []byte(strconv.Itoa(int(a))), nil
}

// UserColumns CSV表头，顺序固定
var UserColumns = []string{
	"user_id", "name", "age", "bio", "birth_date",
	"photo_count", "photo_urls",
}

// UserRecord 一条发现的用户资料，插入后不再修改
type UserRecord struct {
	UserID     string   `db:"user_id" json:"user_id"`
	Name       string   `db:"name" json:"name"`
	Age        Age      `db:"age" json:"age"`
	Bio        string   `db:"bio" json:"bio"`
	BirthDate  string   `db:"birth_date" json:"birth_date"`
	PhotoCount int      `db:"photo_count" json:"photo_count"`
	PhotoURLs  []string `db:"-" json:"photo_urls"`
}

// JoinedPhotoURLs 按来源顺序用 " | " 拼接照片URL
func (u UserRecord) JoinedPhotoURLs() string {
	return strings.Join(u.PhotoURLs, PhotoURLSeparator)
}

// CSVRow 按 UserColumns 顺序生成一行
func (u UserRecord) CSVRow() []string {
	return []string{
		u.UserID,
		u.Name,
		u.Age.String(),
		u.Bio,
		u.BirthDate,
		strconv.Itoa(u.PhotoCount),
		u.JoinedPhotoURLs(),
	}
}
