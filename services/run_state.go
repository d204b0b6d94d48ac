package services

import (
	"sync"
	"time"

	"recs_collector/models"
)

// StopReason 采集循环的结束原因
type StopReason string

const (
	StopNone          StopReason = ""
	StopNonSuccess    StopReason = "non_success"
	StopEmptyPage     StopReason = "empty_page"
	StopRequestLimit  StopReason = "request_limit"
	StopInterrupted   StopReason = "interrupted"
	StopStorageFailed StopReason = "storage_error"
)

// RunState 单次运行的全部状态。采集循环是唯一的写入方，
// 状态接口只通过 Snapshot/Users 读取。
type RunState struct {
	mu         sync.RWMutex
	users      []models.UserRecord
	seen       map[string]struct{}
	requests   int
	outputFile string
	startedAt  time.Time
	stopReason StopReason
	finished   bool
}

func NewRunState(outputFile string, startedAt time.Time) *RunState {
	return &RunState{
		seen:       make(map[string]struct{}),
		outputFile: outputFile,
		startedAt:  startedAt,
	}
}

// Seen 判断用户ID是否已采集
func (s *RunState) Seen(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[userID]
	return ok
}

// Add 追加新用户，已存在的ID会被忽略，返回是否插入
func (s *RunState) Add(u models.UserRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[u.UserID]; ok {
		return false
	}
	s.seen[u.UserID] = struct{}{}
	s.users = append(s.users, u)
	return true
}

func (s *RunState) nextRequest() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return s.requests
}

func (s *RunState) finish(reason StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopReason = reason
	s.finished = true
}

func (s *RunState) Requests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests
}

func (s *RunState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *RunState) OutputFile() string {
	return s.outputFile
}

// Users 返回前 limit 条已采集用户的副本，limit<=0 返回全部
func (s *RunState) Users(limit int) []models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.users)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.UserRecord, n)
	copy(out, s.users[:n])
	return out
}

// Snapshot 当前运行状态
func (s *RunState) Snapshot() models.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := "running"
	if s.finished {
		state = "stopped"
	}
	return models.RunStatus{
		State:       state,
		StopReason:  string(s.stopReason),
		Requests:    s.requests,
		UniqueUsers: len(s.users),
		OutputFile:  s.outputFile,
		StartedAt:   s.startedAt.UTC().Format(time.RFC3339),
	}
}
