package services

import (
	"fmt"
	"io"
	"strings"

	"recs_collector/models"
)

// SummaryPreviewSize 汇总中展示的用户数量
const SummaryPreviewSize = 5

// Summary 一次运行的汇总报告
type Summary struct {
	StopReason  StopReason
	Requests    int
	UniqueUsers int
	OutputFile  string
	Preview     []models.UserRecord
}

func (c *Collector) summarize(reason StopReason) Summary {
	return Summary{
		StopReason:  reason,
		Requests:    c.State.Requests(),
		UniqueUsers: c.State.Count(),
		OutputFile:  c.State.OutputFile(),
		Preview:     c.State.Users(SummaryPreviewSize),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Print 输出人类可读的汇总
func (s Summary) Print(w io.Writer) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nSCRAPING SUMMARY\n%s\n", line, line)
	fmt.Fprintf(w, "Stop reason: %s\n", s.StopReason)
	fmt.Fprintf(w, "Total requests made: %d\n", s.Requests)
	fmt.Fprintf(w, "Total unique users collected: %d\n", s.UniqueUsers)
	fmt.Fprintf(w, "CSV file saved at: %s\n", s.OutputFile)

	if len(s.Preview) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSample of collected users:")
	for i, u := range s.Preview {
		fmt.Fprintf(w, "  %d. %s (ID: %s...) - Age: %s - %d photos\n", i+1, u.Name, shortID(u.UserID), u.Age, u.PhotoCount)
	}
	if more := s.UniqueUsers - len(s.Preview); more > 0 {
		fmt.Fprintf(w, "  ... and %d more users\n", more)
	}
}
