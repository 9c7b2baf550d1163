package tui

import "time"

type tickMsg time.Time

type promptRequestMsg struct {
	reply chan<- promptAnswer
}

type refreshDoneMsg struct {
	err error
}

type commandDoneMsg struct {
	status string
	err    error
}

type copiedMsg struct {
	err error
}
