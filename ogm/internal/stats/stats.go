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

// Package stats extracts query statistics from the summary attached to a
// response. Both the HTTP spelling (nodes_created) and the binary summary
// spelling (nodes-created) are understood.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// Counter key names
const (
	NodesCreated          = "nodes-created"
	NodesDeleted          = "nodes-deleted"
	RelationshipsCreated  = "relationships-created"
	RelationshipsDeleted  = "relationships-deleted"
	PropertiesSet         = "properties-set"
	LabelsAdded           = "labels-added"
	LabelsRemoved         = "labels-removed"
	IndexesAdded          = "indexes-added"
	IndexesRemoved        = "indexes-removed"
	ConstraintsAdded      = "constraints-added"
	ConstraintsRemoved    = "constraints-removed"
	SystemUpdates         = "system-updates"
	ContainsUpdates       = "contains-updates"
	ContainsSystemUpdates = "contains-system-updates"
)

// Extract builds statistics from a stats object. A nil object gives zero
// statistics. Unknown keys are ignored.
func Extract(obj tree.Object) (model.QueryStatistics, error) {
	var s model.QueryStatistics
	containsUpdatesSent := false
	for _, m := range obj {
		key := strings.ReplaceAll(m.Key, "_", "-")
		var counter *int
		switch key {
		case NodesCreated:
			counter = &s.NodesCreated
		case NodesDeleted:
			counter = &s.NodesDeleted
		case RelationshipsCreated:
			counter = &s.RelationshipsCreated
		case RelationshipsDeleted, "relationship-deleted":
			counter = &s.RelationshipsDeleted
		case PropertiesSet:
			counter = &s.PropertiesSet
		case LabelsAdded:
			counter = &s.LabelsAdded
		case LabelsRemoved:
			counter = &s.LabelsRemoved
		case IndexesAdded:
			counter = &s.IndexesAdded
		case IndexesRemoved:
			counter = &s.IndexesRemoved
		case ConstraintsAdded:
			counter = &s.ConstraintsAdded
		case ConstraintsRemoved:
			counter = &s.ConstraintsRemoved
		case SystemUpdates:
			counter = &s.SystemUpdates
		case ContainsUpdates:
			b, err := toBool(m.Key, m.Value)
			if err != nil {
				return model.QueryStatistics{}, err
			}
			s.ContainsUpdates = b
			containsUpdatesSent = true
			continue
		case ContainsSystemUpdates:
			b, err := toBool(m.Key, m.Value)
			if err != nil {
				return model.QueryStatistics{}, err
			}
			s.ContainsSystemUpdates = b
			continue
		default:
			continue
		}
		n, err := toInt(m.Key, m.Value)
		if err != nil {
			return model.QueryStatistics{}, err
		}
		*counter = n
	}
	if !containsUpdatesSent {
		s.ContainsUpdates = hasUpdates(&s)
	}
	if s.SystemUpdates > 0 {
		s.ContainsSystemUpdates = true
	}
	return s, nil
}

func hasUpdates(s *model.QueryStatistics) bool {
	return s.NodesCreated > 0 || s.NodesDeleted > 0 ||
		s.RelationshipsCreated > 0 || s.RelationshipsDeleted > 0 ||
		s.PropertiesSet > 0 || s.LabelsAdded > 0 || s.LabelsRemoved > 0 ||
		s.IndexesAdded > 0 || s.IndexesRemoved > 0 ||
		s.ConstraintsAdded > 0 || s.ConstraintsRemoved > 0
}

func toInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(n), nil
	case tree.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err == nil {
			return int(i), nil
		}
		// Some servers send counters as 1.0
		f, ferr := strconv.ParseFloat(string(n), 64)
		if ferr == nil && f == math.Trunc(f) {
			return int(f), nil
		}
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, &db.MalformedResponseError{Reason: fmt.Sprintf("stats counter %s is not an integer: %v", key, v)}
}

func toBool(key string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	}
	return false, &db.MalformedResponseError{Reason: fmt.Sprintf("stats flag %s is not a boolean: %v", key, v)}
}
