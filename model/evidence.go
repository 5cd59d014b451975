package model

import "time"

// TimeWindow bounds an evidence lookup.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// LookbackWindow returns the window ending at ref and starting lookback earlier.
func LookbackWindow(ref time.Time, lookback time.Duration) TimeWindow {
	return TimeWindow{Start: ref.Add(-lookback), End: ref}
}

// ConfigChange is one configuration-history entry for a resource.
type ConfigChange struct {
	CapturedAt time.Time
	ChangeType string
	Status     string
}

// APIEvent is one recorded management API call touching a resource.
type APIEvent struct {
	EventTime time.Time
	EventName string
	Username  string
}

// AccountInfo identifies the cloud account the pipeline is acting on.
type AccountInfo struct {
	Provider    string
	AccountID   string
	AccountName string
}
