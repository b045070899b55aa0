package main

import (
	"log/syslog"

	"github.com/sirupsen/logrus"
	lSyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// attachSyslog routes all records to the local syslog daemon under the user
// facility. A missing syslog socket (containers, tests) is not fatal.
func attachSyslog(log *logrus.Logger) {
	hook, err := lSyslog.NewSyslogHook("", "", syslog.LOG_USER, "mcv4fwdd")
	if err != nil {
		log.Warnf("syslog unavailable: %v", err)
		return
	}
	log.AddHook(hook)
}
