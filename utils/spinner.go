package utils

import (
	"time"

	"github.com/briandowns/spinner"
)

var activeSpinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)

func StartSpinner() {
	activeSpinner.Suffix = " Running egress anomaly cycle..."
	activeSpinner.Start()
}

func StopSpinner() {
	if activeSpinner.Active() {
		activeSpinner.Stop()
	}
}
