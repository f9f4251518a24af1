package live

// Message types exchanged over the live socket. Every frame is a JSON object with a
// "type" field.
const (
	// client -> server
	TypeMount     = "mount"
	TypeIntersect = "intersect"
	TypeUnmount   = "unmount"

	// server -> client
	TypeObserve    = "observe"
	TypeTOC        = "toc"
	TypeDisconnect = "disconnect"
	TypeTheme      = "theme"
	TypeError      = "error"
)

// ClientMessage is any frame sent by the browser.
type ClientMessage struct {
	Type       string              `json:"type"`
	Slug       string              `json:"slug,omitempty"`
	Generation uint64              `json:"generation,omitempty"`
	Entries    []IntersectionEntry `json:"entries,omitempty"`
}

// IntersectionEntry is one IntersectionObserver record relayed by the browser.
type IntersectionEntry struct {
	ID           string `json:"id"`
	Intersecting bool   `json:"intersecting"`
}

// ObserveMessage asks the browser to start observing targets.
type ObserveMessage struct {
	Type       string   `json:"type"`
	Generation uint64   `json:"generation"`
	Targets    []string `json:"targets"`
	RootMargin string   `json:"rootMargin"`
}

// TOCMessage sets the highlight of one table-of-contents entry.
type TOCMessage struct {
	Type   string `json:"type"`
	Anchor string `json:"anchor"`
	Active bool   `json:"active"`
}

// DisconnectMessage tells the browser to drop an observation.
type DisconnectMessage struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
}

// ThemeMessage announces a theme change.
type ThemeMessage struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// ErrorMessage reports a request the server could not honour.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
