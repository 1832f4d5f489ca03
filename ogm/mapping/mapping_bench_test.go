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


package mapping_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-ogm/ogm"
	"github.com/neo4j/neo4j-go-ogm/ogm/mapping"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

type User struct {
	Id        int64  `ogm:"mapping_type=id"`
	FirstName string `ogm:"mapping_type=property,name=firstName"`
}

func BenchmarkMapNode(b *testing.B) {
	node := &model.Node{Id: 1, Labels: []string{"Person"}, Props: props("name", "Keanu", "born", int64(1964))}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := mapping.MapNode[*Person](node); err != nil {
			b.Error(err)
		}
	}
}

func BenchmarkMaterializeGraph(b *testing.B) {
	ctx := context.Background()
	body, err := os.ReadFile("../testdata/graph_load_by_ids.json")
	if err != nil {
		b.Fatal(err)
	}
	users := mapping.NodesWithLabel[User]("User")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := ogm.OpenResponse(io.NopCloser(bytes.NewReader(body)), ogm.Graph)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := ogm.Materialize[*model.GraphModel, User](ctx, resp, users); err != nil {
			b.Error(err)
		}
		if err := resp.Close(); err != nil {
			b.Error(err)
		}
	}
}
