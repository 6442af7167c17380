package types

// ------------------------
// Common service state (retained)
// ------------------------

type ServiceState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ------------------------
// Clock payloads
// ------------------------

// TimeReading is the retained payload on "clock/time".
type TimeReading struct {
	UnixMS  int64 `json:"unix_ms"`
	Year    int   `json:"year"` // four-digit year
	Month   int   `json:"month"`
	Day     int   `json:"day"`
	Weekday int   `json:"weekday"` // 1..7, Sunday = 1
	Hour    int   `json:"hour"`    // always 24-hour form
	Minute  int   `json:"minute"`
	Second  int   `json:"second"`
	TS      int64 `json:"ts_ms"` // host timestamp of the read
}

// ClockState is the retained payload on "clock/state".
type ClockState struct {
	Present bool   `json:"present"`
	Running bool   `json:"running"`
	Mode12  bool   `json:"mode_12h"`
	Error   string `json:"error,omitempty"` // last errcode, empty when healthy
	TS      int64  `json:"ts_ms"`
}

// SetTimeParams is the payload for "clock/control/set".
type SetTimeParams struct {
	Unix int64 `json:"unix"` // seconds since 1970, UTC
}

// ClockOutParams is the payload for "clock/control/clockout".
type ClockOutParams struct {
	Enable bool  `json:"enable"`
	Level  bool  `json:"level"`
	Rate   uint8 `json:"rate"` // 0=1Hz 1=4.096k 2=8.192k 3=32.768k
}

// ClockConfig arrives retained on "config/clock".
type ClockConfig struct {
	PublishMS  int  `json:"publish_ms"`  // retained time publish period
	Mode12Hour bool `json:"mode_12h"`    // hour format used for writes
}
