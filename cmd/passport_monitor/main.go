// Package main provides the entry point for the passport appointment monitor.
//
// The monitor keeps a browser session on the booking wizard's office
// selection page, authenticated with a JSESSIONID taken from a logged-in
// browser, and alerts when any office stops reporting that it has no slots.
//
// Usage:
//
//	passport_monitor <JSESSIONID>
//	passport_monitor --config passport_monitor.yaml --headless <JSESSIONID>
package main

func main() {
	Execute()
}
