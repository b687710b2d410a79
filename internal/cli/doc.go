// Package cli is the interactive front end of gophcal.
//
// It owns every prompt and every line printed to the user. Services never
// write to the terminal; reminders reach the user through the scheduler's
// event channel, which a dedicated goroutine drains and prints.
package cli
