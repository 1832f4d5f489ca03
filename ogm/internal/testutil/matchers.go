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


package testutil

import (
	"errors"
	"fmt"

	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
)

// BeQueryExecutionError matches any error wrapping a *db.QueryExecutionError.
func BeQueryExecutionError() types.GomegaMatcher {
	return &queryErrorMatcher{}
}

func BeClientError() types.GomegaMatcher {
	return &queryErrorMatcher{
		classificationMatcher: gomega.BeEquivalentTo("ClientError"),
	}
}

func BeTransientError() types.GomegaMatcher {
	return &queryErrorMatcher{
		classificationMatcher: gomega.BeEquivalentTo("TransientError"),
	}
}

func BeArithmeticError() types.GomegaMatcher {
	return &queryErrorMatcher{
		codeMatcher: gomega.ContainSubstring("ArithmeticError"),
	}
}

// BeMalformedResponse matches any error wrapping a *db.MalformedResponseError.
func BeMalformedResponse() types.GomegaMatcher {
	return &malformedMatcher{}
}

type queryErrorMatcher struct {
	classificationMatcher types.GomegaMatcher
	codeMatcher           types.GomegaMatcher
}

func asQueryError(actual any) (*db.QueryExecutionError, bool) {
	err, ok := actual.(error)
	if !ok {
		return nil, false
	}
	var qe *db.QueryExecutionError
	return qe, errors.As(err, &qe)
}

func (matcher *queryErrorMatcher) Match(actual any) (bool, error) {
	qe, ok := asQueryError(actual)
	if !ok {
		return false, nil
	}
	if matcher.classificationMatcher != nil {
		return matcher.classificationMatcher.Match(qe.Classification())
	}
	if matcher.codeMatcher != nil {
		return matcher.codeMatcher.Match(qe.Code)
	}
	return true, nil
}

func (matcher *queryErrorMatcher) FailureMessage(actual any) string {
	qe, ok := asQueryError(actual)
	if !ok {
		return fmt.Sprintf("Expected\n\t%#v\nto be a QueryExecutionError", actual)
	}
	if matcher.classificationMatcher != nil {
		return fmt.Sprintf("Expected\n\t%#v\nto have its classification to match %s", actual, matcher.classificationMatcher.FailureMessage(qe.Classification()))
	}
	if matcher.codeMatcher != nil {
		return fmt.Sprintf("Expected\n\t%#v\nto have its code to match %s", actual, matcher.codeMatcher.FailureMessage(qe.Code))
	}
	return "Unexpected condition in matcher"
}

func (matcher *queryErrorMatcher) NegatedFailureMessage(actual any) string {
	qe, ok := asQueryError(actual)
	if !ok {
		return fmt.Sprintf("Expected\n\t%#v\nnot to be a QueryExecutionError", actual)
	}
	if matcher.classificationMatcher != nil {
		return fmt.Sprintf("Expected\n\t%#v\nnot to have its classification to match %s", actual, matcher.classificationMatcher.NegatedFailureMessage(qe.Classification()))
	}
	if matcher.codeMatcher != nil {
		return fmt.Sprintf("Expected\n\t%#v\nnot to have its code to match %s", actual, matcher.codeMatcher.NegatedFailureMessage(qe.Code))
	}
	return fmt.Sprintf("Expected\n\t%#v\nnot to be a QueryExecutionError", actual)
}

type malformedMatcher struct{}

func (matcher *malformedMatcher) Match(actual any) (bool, error) {
	err, ok := actual.(error)
	if !ok {
		return false, nil
	}
	var me *db.MalformedResponseError
	return errors.As(err, &me), nil
}

func (matcher *malformedMatcher) FailureMessage(actual any) string {
	return fmt.Sprintf("Expected\n\t%#v\nto be a MalformedResponseError", actual)
}

func (matcher *malformedMatcher) NegatedFailureMessage(actual any) string {
	return fmt.Sprintf("Expected\n\t%#v\nnot to be a MalformedResponseError", actual)
}
