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


// Command ogmdecode decodes Neo4j query responses from files, from a live
// HTTP endpoint or from the capture spool, and prints one JSON document per
// record.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/neo4j/neo4j-go-ogm/ogm"
	"github.com/neo4j/neo4j-go-ogm/ogm/config"
	"github.com/neo4j/neo4j-go-ogm/ogm/httpdriver"
	"github.com/neo4j/neo4j-go-ogm/ogm/spool"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ogmdecode",
		Short: "Decode Neo4j query responses",
		Long: `ogmdecode reads transactional HTTP (JSON) or Bolt responses and prints
every record as a JSON document on its own line, followed by the query
statistics when asked for.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: off, error, warn, info or debug")
	rootCmd.PersistentFlags().String("kind", "graph", "Record representation: graph, rest or row")
	rootCmd.PersistentFlags().Bool("stats", false, "Print query statistics after the records")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ogmdecode v%s (%s)\n", version, commit)
		},
	})

	decodeCmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode a response stored in a file, - reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("transport", "json", "Encoding of the file: json or bolt")
	rootCmd.AddCommand(decodeCmd)

	queryCmd := &cobra.Command{
		Use:   "query STATEMENT",
		Short: "Run a statement over HTTP and decode the response",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	queryCmd.Flags().StringArrayP("param", "p", nil, "Query parameter as name=value, value is parsed as JSON when possible")
	rootCmd.AddCommand(queryCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "replay [KEY]",
		Short: "Decode a captured response, lists captured keys when KEY is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplay,
	})

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	transport, _ := cmd.Flags().GetString("transport")
	if transport != "json" && transport != "bolt" {
		return fmt.Errorf("unknown transport %q, expected json or bolt", transport)
	}
	var rc io.ReadCloser = io.NopCloser(cmd.InOrStdin())
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		rc = f
	}
	return decode(cmd, rc, transport, cfg)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetStringArray("param")
	params, err := parseParams(raw)
	if err != nil {
		return err
	}
	d, err := httpdriver.New(cfg, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	out := newPrinter(cmd)
	ctx := cmd.Context()
	switch kind, _ := cmd.Flags().GetString("kind"); kind {
	case "graph":
		resp, err := httpdriver.Query(ctx, d, args[0], params, ogm.Graph)
		if err != nil {
			return err
		}
		return emit(ctx, out, resp, renderGraph)
	case "rest", "row":
		k := ogm.Row
		if kind == "rest" {
			k = ogm.Rest
		}
		resp, err := httpdriver.Query(ctx, d, args[0], params, k)
		if err != nil {
			return err
		}
		return emit(ctx, out, resp, renderRow)
	default:
		return unknownKind(kind)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.SpoolDir == "" {
		return fmt.Errorf("replay needs spool_dir in the configuration")
	}
	store, err := spool.Open(spool.Options{Dir: cfg.SpoolDir, Log: cfg.Logger()})
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		keys, err := store.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	}
	rc, err := store.Reader(args[0])
	if err != nil {
		return fmt.Errorf("replay %s: %w", args[0], err)
	}
	return decode(cmd, rc, "json", cfg)
}

func decode(cmd *cobra.Command, rc io.ReadCloser, transport string, cfg *config.Config) error {
	out := newPrinter(cmd)
	ctx := cmd.Context()
	switch kind, _ := cmd.Flags().GetString("kind"); kind {
	case "graph":
		return decodeAs(ctx, out, rc, ogm.Graph, transport, cfg, renderGraph)
	case "rest":
		return decodeAs(ctx, out, rc, ogm.Rest, transport, cfg, renderRow)
	case "row":
		return decodeAs(ctx, out, rc, ogm.Row, transport, cfg, renderRow)
	default:
		_ = rc.Close()
		return unknownKind(kind)
	}
}

func decodeAs[T any](ctx context.Context, out *printer, rc io.ReadCloser, kind ogm.Kind[T], transport string, cfg *config.Config, render func(T) any) error {
	var resp ogm.Response[T]
	var err error
	if transport == "bolt" {
		resp, err = ogm.OpenBoltResponse(rc, kind, ogm.WithConfig(cfg))
	} else {
		resp, err = ogm.OpenResponse(rc, kind, ogm.WithConfig(cfg))
	}
	if err != nil {
		return err
	}
	return emit(ctx, out, resp, render)
}

func unknownKind(kind string) error {
	return fmt.Errorf("unknown kind %q, expected graph, rest or row", kind)
}

func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", p)
		}
		var parsed any
		if err := jsoniter.UnmarshalFromString(value, &parsed); err != nil {
			parsed = value
		}
		params[name] = parsed
	}
	return params, nil
}
