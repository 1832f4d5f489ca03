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

package errorutil

import "fmt"

func CombineAllErrors(errs ...error) error {
	var result error
	for _, err := range errs {
		result = CombineErrors(result, err)
	}
	return result
}

// CombineErrors keeps err1 as the wrapped cause and mentions err2.
func CombineErrors(err1, err2 error) error {
	if err2 == nil {
		return err1
	}
	if err1 == nil {
		return err2
	}
	return fmt.Errorf("error %v occurred after previous error %w", err2, err1)
}

// UsageError represents errors caused by incorrect usage of the API, such as
// reading a closed response or passing an invalid configuration.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}
