/*
 * Copyright (c) "Neo4j"
 * Neo4j Sweden AB [https://neo4j.com]
 *
 * This file is part of Neo4j.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Level is the type that default logging implementations use for available
// log levels
type Level int

const (
	OFF Level = iota
	// ERROR is the level that error messages are written
	ERROR
	// WARNING is the level that warning messages are written
	WARNING
	// INFO is the level that info messages are written
	INFO
	// DEBUG is the level that debug messages are written
	DEBUG
)

// ParseLevel parses the level names used in configuration files.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "off", "none":
		return OFF, nil
	case "error":
		return ERROR, nil
	case "warn", "warning":
		return WARNING, nil
	case "info":
		return INFO, nil
	case "debug":
		return DEBUG, nil
	}
	return OFF, fmt.Errorf("unknown log level %q", s)
}

// Console returns a logger writing errors to stderr and everything else to
// stdout.
func Console(level Level) *ConsoleLogger {
	return &ConsoleLogger{
		Errors: level >= ERROR,
		Warns:  level >= WARNING,
		Infos:  level >= INFO,
		Debugs: level >= DEBUG,
	}
}

// 2020-05-03 12:39:45.001  ERROR  [response 6f1c2a3e] Failed to decode
// 2020-05-03 12:39:45.001   INFO  [httpdriver 1] Custom message
// 2020-05-03 12:39:45.001   WARN  [spool 1] Custom message
type ConsoleLogger struct {
	Errors bool
	Infos  bool
	Warns  bool
	Debugs bool
	// Out and ErrOut default to stdout and stderr.
	Out    io.Writer
	ErrOut io.Writer
}

const timeFormat = "2006-01-02 15:04:05.000"

func (l *ConsoleLogger) write(errors bool, level, name, id, msg string) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	if errors {
		out = l.ErrOut
		if out == nil {
			out = os.Stderr
		}
	}
	fmt.Fprintf(out, "%s  %5s  [%s %s] %s\n", time.Now().Format(timeFormat), level, name, id, msg)
}

func (l *ConsoleLogger) Error(name, id string, err error) {
	if !l.Errors {
		return
	}
	l.write(true, "ERROR", name, id, err.Error())
}

func (l *ConsoleLogger) Errorf(name, id string, msg string, args ...any) {
	if !l.Errors {
		return
	}
	l.write(true, "ERROR", name, id, fmt.Sprintf(msg, args...))
}

func (l *ConsoleLogger) Warnf(name, id string, msg string, args ...any) {
	if !l.Warns {
		return
	}
	l.write(false, "WARN", name, id, fmt.Sprintf(msg, args...))
}

func (l *ConsoleLogger) Infof(name, id string, msg string, args ...any) {
	if !l.Infos {
		return
	}
	l.write(false, "INFO", name, id, fmt.Sprintf(msg, args...))
}

func (l *ConsoleLogger) Debugf(name, id string, msg string, args ...any) {
	if !l.Debugs {
		return
	}
	l.write(false, "DEBUG", name, id, fmt.Sprintf(msg, args...))
}
