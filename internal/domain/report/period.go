package report

import (
	"fmt"
	"time"

	"github.com/pharmabill/backend/internal/domain/shared"
)

// GroupBy selects the bucket size of a sales report
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy defaults an empty value to day
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "":
		return GroupByDay, nil
	case GroupByDay, GroupByWeek, GroupByMonth:
		return GroupBy(s), nil
	}
	return "", shared.NewDomainError("INVALID_INPUT", "group_by must be one of day, week, month")
}

// PeriodKey returns the bucket label for t: 2006-01-02, 2006-W01 (ISO week)
// or 2006-01.
func (g GroupBy) PeriodKey(t time.Time) string {
	switch g {
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// StatsPeriods are the look-back windows accepted by sales statistics
var StatsPeriods = map[int]bool{7: true, 30: true, 90: true}

// ParseStatsPeriod accepts 7, 30 or 90 and defaults 0 to 30
func ParseStatsPeriod(days int) (int, error) {
	if days == 0 {
		return 30, nil
	}
	if !StatsPeriods[days] {
		return 0, shared.NewDomainError("INVALID_INPUT", "period must be 7, 30 or 90 days")
	}
	return days, nil
}
