package registry

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/robfig/cron/v3"
)

var ErrNotScheduled = errors.New("trigger is not scheduled")

// CronSpec converts the schedule of a Scheduled trigger into a standard
// five-field cron expression. No days means every day.
func CronSpec(trigger *models.TriggerConfig) (string, error) {
	if trigger.TriggerType != models.TriggerScheduled {
		return "", ErrNotScheduled
	}

	hour, minute, err := parseClock(trigger.ScheduleTime)
	if err != nil {
		return "", err
	}

	days := "*"

	if len(trigger.ScheduleDays) > 0 {
		numbers := make([]int, 0, len(trigger.ScheduleDays))

		for _, day := range trigger.ScheduleDays {
			index := slices.Index(Weekdays, day)
			if index < 0 {
				return "", fmt.Errorf("unknown schedule day %q", day)
			}

			if !slices.Contains(numbers, index) {
				numbers = append(numbers, index)
			}
		}

		slices.Sort(numbers)

		parts := make([]string, 0, len(numbers))
		for _, number := range numbers {
			parts = append(parts, strconv.Itoa(number))
		}

		days = strings.Join(parts, ",")
	}

	spec := fmt.Sprintf("%d %d * * %s", minute, hour, days)

	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return spec, nil
}

// NextRun returns the first activation of a Scheduled trigger after from.
func NextRun(trigger *models.TriggerConfig, from time.Time) (time.Time, error) {
	spec, err := CronSpec(trigger)
	if err != nil {
		return time.Time{}, err
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(from), nil
}

func parseClock(value string) (int, int, error) {
	if value == "" {
		return 0, 0, errors.New("schedule time is empty")
	}

	clock, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule time %q is not HH:MM", value)
	}

	return clock.Hour(), clock.Minute(), nil
}
