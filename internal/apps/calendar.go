package apps

import (
	"context"
	"strings"
)

var calendarToolSlugs = []string{
	"GOOGLECALENDAR_LIST_CALENDARS",
	"GOOGLECALENDAR_GET_CALENDAR",
	"GOOGLECALENDAR_EVENTS_LIST",
	"GOOGLECALENDAR_EVENTS_GET",
	"GOOGLECALENDAR_EVENTS_INSTANCES",
	"GOOGLECALENDAR_FIND_EVENT",
	"GOOGLECALENDAR_FIND_FREE_SLOTS",
	"GOOGLECALENDAR_FREE_BUSY_QUERY",
	"GOOGLECALENDAR_GET_CURRENT_DATE_TIME",
	"GOOGLECALENDAR_CREATE_EVENT",
	"GOOGLECALENDAR_UPDATE_EVENT",
	"GOOGLECALENDAR_PATCH_EVENT",
	"GOOGLECALENDAR_DELETE_EVENT",
	"GOOGLECALENDAR_QUICK_ADD",
	"GOOGLECALENDAR_EVENTS_MOVE",
	"GOOGLECALENDAR_REMOVE_ATTENDEE",
}

// Calendar slugs mix verbs into different positions, so write detection
// matches tokens anywhere in the name.
var calendarWriteTokens = []string{
	"create_",
	"update_",
	"patch_",
	"delete_",
	"quick_add",
	"remove_",
	"move",
	"import",
	"duplicate_",
	"clear_",
	"insert",
}

// CalendarCapability implements Capability for Google Calendar.
type CalendarCapability struct{}

// NewCalendarCapability creates the Google Calendar capability.
func NewCalendarCapability() *CalendarCapability { return &CalendarCapability{} }

// ID implements Capability.
func (c *CalendarCapability) ID() string { return AppGoogleCalendar }

// ToolSlugs implements Capability.
func (c *CalendarCapability) ToolSlugs() []string { return calendarToolSlugs }

// IsWriteAction implements Capability.
func (c *CalendarCapability) IsWriteAction(tool string, args map[string]any) bool {
	lower := strings.ToLower(tool)
	for _, token := range calendarWriteTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// EnrichProposal implements Capability; calendar proposals pass through.
func (c *CalendarCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	return args
}

var _ Capability = (*CalendarCapability)(nil)
