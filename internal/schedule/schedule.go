// Package schedule manages time-triggered daemon commands through djs, the
// external per-time job runner.
//
// djs owns the jobs. The Manager's list is a cache rebuilt by re-listing both
// job classes; structural changes refresh it, command edits patch it in place.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/foundation/normalization"
)

// Class names as used by `djs cancel`.
const (
	ClassOnce  = "once"
	ClassDaily = "daily"
)

// Schedule is one djs job.
type Schedule struct {
	ID          string `json:"id"`
	ExecuteOnce bool   `json:"executeOnce"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	Command     string `json:"command"`
}

// Class returns "once" or "daily".
func (s Schedule) Class() string {
	return ClassName(s.ExecuteOnce)
}

// ClassName maps executeOnce to its djs class name.
func ClassName(once bool) string {
	if once {
		return ClassOnce
	}
	return ClassDaily
}

var classes = normalization.New("schedule class", map[string]bool{
	ClassOnce:  true,
	"o":        true,
	ClassDaily: false,
	"d":        false,
})

// ParseClass maps "once"/"daily" (or "o"/"d") back to executeOnce.
func ParseClass(s string) (once bool, err error) {
	return classes.Parse(s)
}

// ID formats hour and minute as the zero-padded HHMM job id.
func ID(hour, minute int) string {
	return fmt.Sprintf("%02d%02d", hour, minute)
}

var (
	listLinePattern = regexp.MustCompile(`^\s*([0-9]{2})([0-9]{2}): (.*)$`)
	idPattern       = regexp.MustCompile(`^[0-9]{4}$`)
)

// parseList keeps the lines shaped like "HHMM: command" and parses them.
func parseList(once bool, lines []string) []Schedule {
	out := []Schedule{}
	for _, line := range lines {
		m := listLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		out = append(out, Schedule{
			ID:          m[1] + m[2],
			ExecuteOnce: once,
			Hour:        hour,
			Minute:      minute,
			Command:     m[3],
		})
	}
	return out
}

func validateTime(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return errors.ValidationError("hour must be between 0 and 23").WithContext("hour", hour).Build()
	}
	if minute < 0 || minute > 59 {
		return errors.ValidationError("minute must be between 0 and 59").WithContext("minute", minute).Build()
	}
	return nil
}

func validateID(id string) error {
	if !idPattern.MatchString(id) {
		return errors.ValidationError("schedule id must be HHMM").WithContext("id", id).Build()
	}
	hour, _ := strconv.Atoi(id[:2])
	minute, _ := strconv.Atoi(id[2:])
	return validateTime(hour, minute)
}

// quote wraps command in double quotes, escaping what the shell would
// otherwise expand or terminate on.
func quote(command string) string {
	var b strings.Builder
	b.Grow(len(command) + 2)
	b.WriteByte('"')
	for _, r := range command {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func listCommand(once bool) string {
	return "djs i " + shortClass(once)
}

func addCommand(once bool, hour, minute int, command string) string {
	return fmt.Sprintf("djs %s %02d %02d %s", shortClass(once), hour, minute, quote(command))
}

func cancelCommand(once bool, id string) string {
	return fmt.Sprintf("djs cancel %s %s", ClassName(once), id)
}

func shortClass(once bool) string {
	if once {
		return "o"
	}
	return "d"
}
