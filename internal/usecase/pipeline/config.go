package pipeline

import "time"

// Pipeline stages as admission control and queue routing see them.
const (
	StageDownload = "download"
	StageUpload   = "upload"
	StageVerify   = "verify"
)

// nextUTCMidnight is the boundary daily quotas roll over at.
func nextUTCMidnight(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
