package wsstore

import (
	"fmt"
	"sort"
	"time"
)

const wsstoreTimestampLayout = "2006-01-02 15:04"

// Envelope is the decoded top-level wsstore reply: either a Success carrying
// queue groups or a Failure carrying the upstream error message.
type Envelope interface {
	envelope()
}

// Success is a well-formed data reply. Date and Time apply to every group in
// the reply; the upstream API timestamps the envelope, not the groups.
type Success struct {
	Date   string
	Time   string
	Groups []GroupStatus
}

func (Success) envelope() {}

// Failure is a well-formed error reply ({"result":"false","error":...}).
type Failure struct {
	Message string
}

func (Failure) envelope() {}

// CounterStatus is the upstream "status" field: the API sends null, "0", or
// "1" for a group's counter.
type CounterStatus int

const (
	StatusUnknown CounterStatus = iota // null or absent
	StatusClosed                       // "0"
	StatusOpen                         // "1"
)

// GroupStatus is one decoded element of the "grupy" array, before projection
// into Matter and Sample.
type GroupStatus struct {
	Status        CounterStatus
	Ordinal       *int // "lp"; nil when upstream sends null
	GroupID       int64
	OpenCounters  int
	Name          string
	Letter        string // "" or one capital letter
	QueueLength   int
	CurrentNumber CurrentNumber
	ServiceTime   *int // minutes; nil when absent
}

// CurrentNumber is the number shown on a queue display. The wire value has
// two shapes: a plain 1-3 digit number (leading zeros preserved) or one
// capital letter followed by exactly three digits. The zero value is the
// empty display.
type CurrentNumber struct {
	letter byte
	digits string
}

// ParseCurrentNumber validates a wire "aktualnyNumer" value.
func ParseCurrentNumber(s string) (CurrentNumber, error) {
	if s == "" {
		return CurrentNumber{}, nil
	}
	if s[0] >= 'A' && s[0] <= 'Z' {
		if len(s) != 4 || !allDigits(s[1:]) {
			return CurrentNumber{}, fmt.Errorf("letter form must be 1 capital letter + 3 digits, got %q", s)
		}
		return CurrentNumber{letter: s[0], digits: s[1:]}, nil
	}
	if len(s) > 3 || !allDigits(s) {
		return CurrentNumber{}, fmt.Errorf("plain form must be 1-3 digits, got %q", s)
	}
	return CurrentNumber{digits: s}, nil
}

// IsEmpty reports whether the display shows no number.
func (n CurrentNumber) IsEmpty() bool {
	return n.letter == 0 && n.digits == ""
}

// Letter returns the counter letter prefix when the letter form was sent.
func (n CurrentNumber) Letter() (byte, bool) {
	return n.letter, n.letter != 0
}

// String returns the exact wire form, leading zeros included.
func (n CurrentNumber) String() string {
	if n.letter == 0 {
		return n.digits
	}
	return string(n.letter) + n.digits
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Office identifies one city office in the directory listing. Key is opaque
// and scopes matter queries.
type Office struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Matter is one category of administrative business handled by an office
// queue. It belongs to the office whose key was used to fetch it.
type Matter struct {
	Name    string
	Ordinal *int // nil when upstream sends null
	GroupID int64
}

// Sample is a point-in-time reading of one matter's queue.
type Sample struct {
	QueueLength   int
	OpenCounters  int
	CurrentNumber CurrentNumber
	Timestamp     string // "YYYY-MM-DD HH:MM", taken from the envelope
}

// ParsedTime returns the sample timestamp as time.Time when possible. The
// upstream grammar allows dates no calendar contains, so zero time is a
// normal outcome, not a bug.
func (s Sample) ParsedTime() time.Time {
	if s.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(wsstoreTimestampLayout, s.Timestamp, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Timestamp joins the envelope date and time the way samples record it.
func (s Success) Timestamp() string {
	return s.Date + " " + s.Time
}

// Matters projects the decoded groups into Matter values sorted by name.
func (s Success) Matters() []Matter {
	matters := make([]Matter, 0, len(s.Groups))
	for _, g := range s.Groups {
		matters = append(matters, Matter{
			Name:    g.Name,
			Ordinal: g.Ordinal,
			GroupID: g.GroupID,
		})
	}
	sort.Slice(matters, func(i, j int) bool { return matters[i].Name < matters[j].Name })
	return matters
}

// Samples projects the groups matching groupID into Sample values stamped
// with the envelope timestamp. An unknown groupID yields an empty slice.
func (s Success) Samples(groupID int64) []Sample {
	var samples []Sample
	for _, g := range s.Groups {
		if g.GroupID != groupID {
			continue
		}
		samples = append(samples, Sample{
			QueueLength:   g.QueueLength,
			OpenCounters:  g.OpenCounters,
			CurrentNumber: g.CurrentNumber,
			Timestamp:     s.Timestamp(),
		})
	}
	return samples
}
