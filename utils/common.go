package utils

import (
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

func TimeTrack(start time.Time, name string) {
	log.Infof("%s took %s", name, time.Since(start))
}

var (
	goodColor = func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
	}
	warnColor = func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
	}
	badColor = func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiRed, color.Bold).SprintFunc())(is...)
	}
	nameColor = func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiCyan).SprintFunc())(is...)
	}
	faintColor = func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
	}
)

// Colorize groups the colour functions used for reports.
var Colorize = struct {
	Good, Warn, Bad, Name, Faint func(...interface{}) string
}{
	Good:  goodColor,
	Warn:  warnColor,
	Bad:   badColor,
	Name:  nameColor,
	Faint: faintColor,
}
