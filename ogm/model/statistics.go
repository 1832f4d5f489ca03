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

package model

// QueryStatistics contains statistics about the changes made to the database
// as part of the statement execution.
type QueryStatistics struct {
	ContainsUpdates       bool
	ContainsSystemUpdates bool
	NodesCreated          int
	NodesDeleted          int
	RelationshipsCreated  int
	RelationshipsDeleted  int
	PropertiesSet         int
	LabelsAdded           int
	LabelsRemoved         int
	IndexesAdded          int
	IndexesRemoved        int
	ConstraintsAdded      int
	ConstraintsRemoved    int
	SystemUpdates         int
}
