package booking

// Command is one of the four operations a front end may request.
// The set is closed: only the types in this file, and pointers to them,
// implement it.
type Command interface {
	// Name is the stable identifier used for tools and logs.
	Name() string
	command()
}

// Command names.
const (
	NameCheckAvailability = "check_availability"
	NameBookEvent         = "book_event"
	NameFreeSlotsForDay   = "free_slots_for_day"
	NameTodayDate         = "today_date"
)

// CheckAvailability asks whether the default-length slot starting at
// TimeText is free.
type CheckAvailability struct {
	TimeText string
}

// BookEvent asks to create an event. EndText is optional.
type BookEvent struct {
	Summary   string
	StartText string
	EndText   string
}

// FreeSlotsForDay asks for the free slots on the day named by DayText.
type FreeSlotsForDay struct {
	DayText string
}

// TodayDate asks for the current date.
type TodayDate struct{}

func (CheckAvailability) Name() string { return NameCheckAvailability }
func (BookEvent) Name() string         { return NameBookEvent }
func (FreeSlotsForDay) Name() string   { return NameFreeSlotsForDay }
func (TodayDate) Name() string         { return NameTodayDate }

func (CheckAvailability) command() {}
func (BookEvent) command()         {}
func (FreeSlotsForDay) command()   {}
func (TodayDate) command()         {}
