package styles

const (
	CheckIcon   string = "✓"
	ErrorIcon   string = "×"
	WarningIcon string = "⚠"
	InfoIcon    string = "ⓘ"
	FollowIcon  string = "↓"

	BorderThin string = "│"
)
