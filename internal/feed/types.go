package feed

// RawRecord is one entry of the portal's "resources" array, exactly as
// the remote API ships it: a free-text title plus a bag of typed fields.
type RawRecord struct {
	Title  string     `json:"title"`
	Fields []RawField `json:"fields"`
}

// RawField is one {validationKey, value} pair of a raw record.
type RawField struct {
	ValidationKey string `json:"validationKey"`
	Value         string `json:"value"`
}

// Validation keys the normalizer extracts from a raw record's field bag.
const (
	keyCode     = "event_code"
	keyCategory = "event_category"
	keyLocation = "event_location"
	keyStatus   = "event_status"
)

// Event is one canonical activity record. Code is the dedup key; the
// store never holds two events with the same code.
type Event struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Location string `json:"location"`
	Status   string `json:"status"`
}
