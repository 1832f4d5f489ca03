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

package stats

import (
	"testing"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	. "github.com/neo4j/neo4j-go-ogm/ogm/internal/testutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

func TestExtract(outer *testing.T) {
	outer.Parallel()

	outer.Run("missing stats give zero statistics", func(t *testing.T) {
		s, err := Extract(nil)
		AssertNoError(t, err)
		AssertDeepEquals(t, s, model.QueryStatistics{})
	})

	outer.Run("http spelling", func(t *testing.T) {
		s, err := Extract(tree.Object{
			{Key: "contains_updates", Value: true},
			{Key: "nodes_created", Value: tree.Number("3")},
			{Key: "relationships_created", Value: tree.Number("1")},
			{Key: "properties_set", Value: tree.Number("6")},
			{Key: "labels_added", Value: tree.Number("3")},
			{Key: "nodes_deleted", Value: tree.Number("0")},
			{Key: "unknown_counter", Value: "ignored"},
		})
		AssertNoError(t, err)
		AssertDeepEquals(t, s, model.QueryStatistics{
			ContainsUpdates:      true,
			NodesCreated:         3,
			RelationshipsCreated: 1,
			PropertiesSet:        6,
			LabelsAdded:          3,
		})
	})

	outer.Run("binary spelling", func(t *testing.T) {
		s, err := Extract(tree.Object{
			{Key: NodesDeleted, Value: int64(2)},
			{Key: ConstraintsAdded, Value: int64(1)},
			{Key: SystemUpdates, Value: int64(1)},
		})
		AssertNoError(t, err)
		AssertIntEqual(t, s.NodesDeleted, 2)
		AssertIntEqual(t, s.ConstraintsAdded, 1)
		AssertTrue(t, s.ContainsUpdates)
		AssertTrue(t, s.ContainsSystemUpdates)
	})

	outer.Run("contains updates sent as false wins", func(t *testing.T) {
		s, err := Extract(tree.Object{
			{Key: "contains_updates", Value: false},
			{Key: "nodes_created", Value: tree.Number("1")},
		})
		AssertNoError(t, err)
		AssertFalse(t, s.ContainsUpdates)
	})

	outer.Run("integral floats are accepted", func(t *testing.T) {
		s, err := Extract(tree.Object{{Key: "labels_removed", Value: tree.Number("2.0")}})
		AssertNoError(t, err)
		AssertIntEqual(t, s.LabelsRemoved, 2)
	})

	outer.Run("non integer counter", func(t *testing.T) {
		_, err := Extract(tree.Object{{Key: "nodes_created", Value: "many"}})
		AssertErrorType[*db.MalformedResponseError](t, err)
	})

	outer.Run("non boolean flag", func(t *testing.T) {
		_, err := Extract(tree.Object{{Key: "contains_updates", Value: tree.Number("1")}})
		AssertErrorType[*db.MalformedResponseError](t, err)
	})
}
