package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeySuccess    = "success"
	KeyGroup      = "field_group"
	KeyProfile    = "profile"
	KeyScheduleID = "schedule_id"
	KeyJobClass   = "job_class"
	KeyJobID      = "job_id"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Command(c string) slog.Attr { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr { return slog.Int(KeyExitCode, code) }
func Success(ok bool) slog.Attr { return slog.Bool(KeySuccess, ok) }
func Group(name string) slog.Attr { return slog.String(KeyGroup, name) }
func Profile(name string) slog.Attr { return slog.String(KeyProfile, name) }
func ScheduleID(id string) slog.Attr { return slog.String(KeyScheduleID, id) }
func JobClass(c string) slog.Attr { return slog.String(KeyJobClass, c) }
func JobID(id string) slog.Attr { return slog.String(KeyJobID, id) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
