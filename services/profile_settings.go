package services

import (
	"context"
	"fmt"

	"recs_collector/config"
	"recs_collector/logger"
)

// KmPerMile 公里转英里的除数
const KmPerMile = 1.60934

var genderNames = map[int]string{
	0: "Men",
	1: "Women",
}

// ProfileSettings 采集前的资料设置更新，结果只记录日志，不影响采集
type ProfileSettings struct {
	Client *RecsClient
}

func (p ProfileSettings) update(ctx context.Context, path string, data any, action string) bool {
	logger.Info("更新资料设置", "action", action)
	if err := p.Client.postJSON(ctx, path, data); err != nil {
		logger.Error("资料设置更新失败", "action", action, "error", err)
		return false
	}
	logger.Info("资料设置更新成功", "action", action)
	return true
}

// UpdateLocation 更新定位
func (p ProfileSettings) UpdateLocation(ctx context.Context, lat, lon float64) bool {
	data := map[string]any{
		"force_fetch_resources": true,
		"background":            false,
		"lat":                   lat,
		"lon":                   lon,
	}
	return p.update(ctx, metaPath, data, fmt.Sprintf("location lat=%v lon=%v", lat, lon))
}

// UpdateAgeFilter 更新年龄筛选
func (p ProfileSettings) UpdateAgeFilter(ctx context.Context, minAge, maxAge int, autoExpand bool) bool {
	data := map[string]any{
		"age_filter_min": minAge,
		"age_filter_max": maxAge,
		"auto_expansion": map[string]any{"age_toggle": autoExpand},
	}
	return p.update(ctx, profilePath, data, fmt.Sprintf("age filter %d-%d", minAge, maxAge))
}

// UpdateDistanceFilter 更新距离筛选，接口单位为英里
func (p ProfileSettings) UpdateDistanceFilter(ctx context.Context, distanceKM float64) bool {
	miles := distanceKM / KmPerMile
	data := map[string]any{"distance_filter": miles}
	return p.update(ctx, profilePath, data, fmt.Sprintf("distance filter %v km (%.2f miles)", distanceKM, miles))
}

// UpdateGenderInterest 更新性别偏好，只接受 0(Men) 和 1(Women)
func (p ProfileSettings) UpdateGenderInterest(ctx context.Context, code int) bool {
	name, ok := genderNames[code]
	if !ok {
		logger.Warn("无效的性别代码，跳过更新", "gender_code", code, "valid", "0=Men, 1=Women")
		return false
	}
	data := map[string]any{"interested_in_genders": []int{code}}
	return p.update(ctx, profilePath, data, "gender interest "+name)
}

// Apply 依次执行全部设置更新
func (p ProfileSettings) Apply(ctx context.Context, cfg *config.Config) {
	d := cfg.Discovery
	p.UpdateLocation(ctx, d.Latitude, d.Longitude)
	p.UpdateAgeFilter(ctx, d.MinAge, d.MaxAge, d.AutoExpandAge)
	p.UpdateDistanceFilter(ctx, d.DistanceKM)
	p.UpdateGenderInterest(ctx, d.InterestedInGender)
}
