package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyDocument   = "document"
	KeySection    = "section"
	KeyLanguage   = "language"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyScheduleID = "schedule_id"
	KeySchedule   = "schedule_name"
	KeyURL        = "url"
	KeyAddr       = "addr"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyResponseSz = "response_size"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Document(d string) slog.Attr      { return slog.String(KeyDocument, d) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Language(l string) slog.Attr      { return slog.String(KeyLanguage, l) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Component(c string) slog.Attr     { return slog.String(KeyComponent, c) }
func ScheduleID(id string) slog.Attr   { return slog.String(KeyScheduleID, id) }
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr     { return slog.Int(KeyResponseSz, n) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
