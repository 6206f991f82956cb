// Package dates parses the loosely structured date values produced by the
// temporal tagger (TIMEX3 "value" attributes) into a small closed set of
// shapes: a full day, a year and month, a year and season, a bare year, or
// unparseable.
//
// Only the shapes are recognised; numeric ranges are not checked, so
// "2011-13-40" is still a full date. Month names for page lookup come from
// MonthName, which reports false for out-of-range months.
package dates
