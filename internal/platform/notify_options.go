package platform

// AppName identifies blurkit to the host notification service.
const AppName = "BlurKit"

const defaultTimeout = 5000

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout is how long the notification stays up, in milliseconds. Zero
	// uses the platform default.
	Timeout int32
	// Urgent asks the host to keep the notification on screen, used when the
	// daily export allowance runs out.
	Urgent bool
}

func (o Options) timeout() int32 {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}
