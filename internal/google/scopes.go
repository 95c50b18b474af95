package google

import calendar "google.golang.org/api/calendar/v3"

// CalendarScopes are the scopes requested for the booking calendar.
// Listing and inserting events needs no more than the events scope.
var CalendarScopes = []string{
	calendar.CalendarEventsScope,
}
