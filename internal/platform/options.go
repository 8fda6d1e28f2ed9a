// Package platform delivers desktop notifications through the host's
// notification service.
package platform

import "time"

// Options configures how a notification is displayed.
type Options struct {
	// AppName identifies the sender; defaults to DefaultAppName.
	AppName string
	// IconPath points to an image shown alongside the message when the
	// notification service supports it.
	IconPath string
	// Timeout is how long the notification stays visible. Zero lets the
	// service decide.
	Timeout time.Duration
}

// DefaultAppName is used when Options.AppName is empty.
const DefaultAppName = "Paint Assemble"

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}
