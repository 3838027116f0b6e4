// Package planner holds the calendar domain: events and their backend
// records, the edit session for creating and changing events, and the weekly
// sport aggregation shown next to the calendar.
package planner
