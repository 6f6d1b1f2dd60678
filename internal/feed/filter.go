package feed

// StatusActive is the only remote lifecycle status worth notifying about.
const StatusActive = "Active"

var validLocations = map[string]bool{
	"ONLINE":  true,
	"OFFLINE": true,
}

var validCategories = map[string]bool{
	"Competition":        true,
	"Paper Presentation": true,
	"Events-Attended":    true,
}

// Notifiable reports whether an event should reach subscribers.
//
// Invalid events are dropped silently and are not remembered, so a record
// that later transitions into validity still shows up as new.
func Notifiable(e Event) bool {
	if e.Status != StatusActive {
		return false
	}
	if !validLocations[e.Location] {
		return false
	}
	return validCategories[e.Category]
}
