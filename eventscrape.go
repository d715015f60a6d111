// Package eventscrape extracts structured event metadata (title, description,
// start/end time, location) from arbitrary web pages. It fetches a page's HTML,
// reduces it to a bounded Markdown digest, and delegates interpretation to an
// LLM call, returning a normalized five-field record.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, gemini/).
package eventscrape
