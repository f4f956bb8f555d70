// Package schedule holds the static rotating timetable and the reset-time ranking.
//
// A Timetable is a fixed list of color slots, each with a handful of daily
// occurrences expressed in one reference timezone. Calculator turns the timetable
// and a wall-clock instant into the time remaining until every slot's next
// occurrence, ordered soonest first.
package schedule
