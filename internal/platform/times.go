package platform

import "time"

// Times holds the three timestamps recorded for an archive entry.
type Times struct {
	Created  time.Time
	Accessed time.Time
	Modified time.Time
}
