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

package ogm

import (
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/testutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

var _ = Describe("Response", func() {
	var (
		ctx    context.Context
		stream *trackingStream
		resp   Response[*model.GraphModel]
		err    error
	)

	BeforeEach(func() {
		ctx = context.Background()
		b, readErr := os.ReadFile("testdata/graph_load_by_ids.json")
		Expect(readErr).NotTo(HaveOccurred())
		stream = &trackingStream{Reader: strings.NewReader(string(b))}
		resp, err = OpenResponse(stream, Graph)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("when opened", func() {
		It("should expose the columns", func() {
			Expect(resp.Columns()).To(Equal([]string{"p"}))
		})

		It("should not have read any record", func() {
			Expect(resp.Record()).To(BeNil())
			Expect(resp.Err()).To(BeNil())
		})

		It("should keep the stream open", func() {
			Expect(stream.closed).To(BeZero())
		})

		It("should not expose statistics yet", func() {
			_, err := resp.Statistics()
			Expect(err).To(BeAssignableToTypeOf(&UsageError{}))
		})
	})

	Context("when streaming", func() {
		It("should merge nodes repeated within a record", func() {
			Expect(resp.Next(ctx)).To(BeTrue())
			Expect(resp.Next(ctx)).To(BeTrue())
			graph := resp.Record()
			Expect(graph.Nodes).To(HaveLen(2))
			Expect(graph.Nodes[0].Id).To(BeEquivalentTo(343))
			Expect(graph.Nodes[1].Id).To(BeEquivalentTo(26))
		})

		It("should keep the last value of a repeated property", func() {
			for i := 0; i < 3; i++ {
				Expect(resp.Next(ctx)).To(BeTrue())
			}
			issue, found := resp.Record().Node(347)
			Expect(found).To(BeTrue())
			Expect(issue.Props.Keys()).To(Equal([]string{"title", "number"}))
		})
	})

	Context("when exhausted", func() {
		BeforeEach(func() {
			records, err := resp.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(6))
		})

		It("should have released the stream", func() {
			Expect(stream.closed).To(Equal(1))
		})

		It("should keep returning false without error", func() {
			Expect(resp.Next(ctx)).To(BeFalse())
			Expect(resp.Next(ctx)).To(BeFalse())
			Expect(resp.Err()).To(BeNil())
		})

		It("should expose statistics", func() {
			stats, err := resp.Statistics()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ContainsUpdates).To(BeFalse())
		})

		It("should not close the stream again", func() {
			Expect(resp.Close()).To(Succeed())
			Expect(stream.closed).To(Equal(1))
		})
	})

	Context("when closed", func() {
		BeforeEach(func() {
			Expect(resp.Close()).To(Succeed())
		})

		It("should close the stream once", func() {
			Expect(resp.Close()).To(Succeed())
			Expect(stream.closed).To(Equal(1))
		})

		It("should report use after close", func() {
			Expect(resp.Next(ctx)).To(BeFalse())
			Expect(IsUseAfterClose(resp.Err())).To(BeTrue())
		})
	})
})

var _ = Describe("Response reporting errors", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("when the server fails after sending data", func() {
		var (
			stream *trackingStream
			resp   Response[*model.RowModel]
		)

		BeforeEach(func() {
			b, err := os.ReadFile("testdata/error_after_data.json")
			Expect(err).NotTo(HaveOccurred())
			stream = &trackingStream{Reader: strings.NewReader(string(b))}
			resp, err = OpenResponse(stream, Row)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should deliver the records read before the error", func() {
			Expect(resp.Next(ctx)).To(BeTrue())
			Expect(resp.Record().Values).To(Equal([]any{int64(1)}))
			Expect(resp.Next(ctx)).To(BeTrue())
			Expect(resp.Next(ctx)).To(BeFalse())
			Expect(resp.Err()).To(testutil.BeQueryExecutionError())
			Expect(resp.Err()).To(testutil.BeClientError())
			Expect(resp.Err()).To(testutil.BeArithmeticError())
			Expect(resp.Err()).NotTo(testutil.BeTransientError())
		})

		It("should release the stream on failure", func() {
			_, err := resp.Collect(ctx)
			Expect(err).To(testutil.BeArithmeticError())
			Expect(stream.closed).To(Equal(1))
		})

		It("should report the failure instead of statistics", func() {
			_, _ = resp.Collect(ctx)
			_, err := resp.Statistics()
			Expect(err).To(testutil.BeQueryExecutionError())
		})
	})

	Context("when the header is malformed", func() {
		It("should fail to open and close the stream", func() {
			stream := &trackingStream{Reader: strings.NewReader(`{"results":[{"columns":"p"}]}`)}
			resp, err := OpenResponse(stream, Graph)
			Expect(resp).To(BeNil())
			Expect(err).To(testutil.BeMalformedResponse())
			Expect(stream.closed).To(Equal(1))
		})
	})
})
