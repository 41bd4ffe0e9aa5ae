package http

import (
	"time"

	xutil "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/util"
)

// ParseTime accepts RFC3339 and unix second/millisecond query values.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

// ParseTimeDefault parses time or returns def if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
