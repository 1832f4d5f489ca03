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

// Package log contains the logging interface used when reading responses and
// its console and no-op implementations.
package log

// Logger is used throughout the module for logging purposes.
// Clients can implement this interface and pass it when opening a response.
//
// All logging functions takes a name and id that corresponds to the name of
// the logging component and its identity, for example "response" and
// "6f1c2a3e-..." to indicate which response is logging.
type Logger interface {
	Error(name string, id string, err error)
	Errorf(name string, id string, msg string, args ...any)
	Warnf(name string, id string, msg string, args ...any)
	Infof(name string, id string, msg string, args ...any)
	Debugf(name string, id string, msg string, args ...any)
}

// Void is a logger that discards everything.
type Void struct{}

func (l Void) Error(name, id string, err error)                 {}
func (l Void) Errorf(name, id string, msg string, args ...any) {}
func (l Void) Warnf(name, id string, msg string, args ...any)  {}
func (l Void) Infof(name, id string, msg string, args ...any)  {}
func (l Void) Debugf(name, id string, msg string, args ...any) {}
