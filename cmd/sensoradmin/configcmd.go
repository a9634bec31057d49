package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// Output formats for config parse.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Convert sensor configuration text",
		Long: "Parse, stringify and display sensor configuration text.\n" +
			"Each command reads the named file, or standard input when the file is omitted or \"-\".",
	}
	cmd.AddCommand(newConfigParseCmd(), newConfigStringifyCmd(), newConfigShowCmd())
	return cmd
}

func newConfigParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse configuration text into JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := sensorconfig.Parse(string(data))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeConfigJSON(out, cfg)
			case formatYAML:
				return writeConfigYAML(out, cfg)
			default:
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatYAML)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	return cmd
}

func newConfigStringifyCmd() *cobra.Command {
	var quoteAmbiguous bool

	cmd := &cobra.Command{
		Use:   "stringify [file]",
		Short: "Render a JSON configuration object as configuration text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := sensorconfig.FromJSON(data)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var opts []sensorconfig.StringifyOption
			if quoteAmbiguous {
				opts = append(opts, sensorconfig.WithQuotedAmbiguousStrings())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sensorconfig.Stringify(cfg, opts...))
			return err
		},
	}
	cmd.Flags().BoolVar(&quoteAmbiguous, "quote-ambiguous", false, "quote strings that would otherwise read back as numbers or booleans")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Display configuration text with human-readable labels",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := sensorconfig.Parse(string(data))
			if err != nil {
				return err
			}
			rows := sensorconfig.FormatWith(cfg, sensorconfig.LabelsFor(lang))
			return writeGroups(cmd.OutOrStdout(), sensorconfig.Group(rows))
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "label language (en, zh)")
	return cmd
}

// readInput returns the contents of args[0], or standard input when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}

func writeConfigJSON(w io.Writer, cfg *sensorconfig.Config) error {
	raw, err := cfg.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// writeConfigYAML encodes through a yaml.Node so keys keep document order.
// As in the JSON form, a section replaces a root key of the same name in
// place.
func writeConfigYAML(w io.Writer, cfg *sensorconfig.Config) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	appendEntries(doc, cfg.Root())

	valueAt := make(map[string]int, cfg.Root().Len())
	for i := 0; i < len(doc.Content); i += 2 {
		valueAt[doc.Content[i].Value] = i + 1
	}
	for _, s := range cfg.Sections() {
		section := &yaml.Node{Kind: yaml.MappingNode}
		appendEntries(section, s)
		if i, ok := valueAt[s.Name()]; ok {
			doc.Content[i] = section
			continue
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name()},
			section,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func appendEntries(m *yaml.Node, s *sensorconfig.Section) {
	for _, e := range s.Entries() {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			scalarNode(e.Value),
		)
	}
}

// scalarNode tags the value with its kind; a !!str tag makes the encoder
// quote strings such as "42" that would otherwise read back as numbers.
func scalarNode(v sensorconfig.Value) *yaml.Node {
	tag := "!!str"
	switch v.Kind() {
	case sensorconfig.KindBool:
		tag = "!!bool"
	case sensorconfig.KindNumber:
		tag = "!!float"
		if n, _ := v.Number(); n == math.Trunc(n) {
			tag = "!!int"
		}
	case sensorconfig.KindString:
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}
}

func writeGroups(w io.Writer, groups []sensorconfig.RowGroup) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		if g.Section != "" {
			fmt.Fprintf(tw, "[%s]\n", g.Section)
		}
		for _, r := range g.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Label, r.Key, r.Value.String())
		}
	}
	return tw.Flush()
}
