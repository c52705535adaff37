// Package tools declares the bedtools operations exposed over MCP.
//
// Each tool is one declarative descriptor: its wire schema, the file
// parameters the pipeline must validate and stage, and a pure argv builder.
// Descriptors are assembled into an immutable registry at startup and
// passed by reference; there is no ambient global registration.
package tools

import "strconv"

// FileParam declares a required file-path argument. Label distinguishes
// the two inputs of intersect ("A"/"B") in user-facing messages; it is
// empty for single-file tools.
type FileParam struct {
	Name        string
	Label       string
	Description string
}

// OptionParam declares an optional argument and its JSON schema type.
type OptionParam struct {
	Name        string
	Type        string // "boolean" or "integer"
	Description string
	Default     any
}

// Tool is the declarative configuration for one bedtools subcommand.
type Tool struct {
	Name        string
	Description string
	Files       []FileParam
	Options     []OptionParam

	// BuildArgs maps staged file paths (in Files order) and the raw
	// argument map to the bedtools argument vector. It must be pure and
	// emit flags in a fixed order so generated commands are reproducible.
	BuildArgs func(staged []string, args map[string]any) []string
}

// Descriptors returns the three bedtools tool configurations.
func Descriptors() []*Tool {
	return []*Tool{
		{
			Name:        "bedtools_intersect",
			Description: "Find overlapping intervals between two files",
			Files: []FileParam{
				{Name: "input_file_a", Label: "A", Description: "Path to first input file (BED/GFF/VCF)"},
				{Name: "input_file_b", Label: "B", Description: "Path to second input file (BED/GFF/VCF)"},
			},
			Options: []OptionParam{
				{Name: "write_a", Type: "boolean", Description: "Write the original entry in A for each overlap", Default: false},
				{Name: "write_b", Type: "boolean", Description: "Write the original entry in B for each overlap", Default: false},
				{Name: "write_overlap", Type: "boolean", Description: "Write the amount of overlap between features", Default: false},
			},
			BuildArgs: intersectArgs,
		},
		{
			Name:        "bedtools_merge",
			Description: "Merge overlapping or nearby intervals",
			Files: []FileParam{
				{Name: "input_file", Description: "Path to input BED file"},
			},
			Options: []OptionParam{
				{Name: "distance", Type: "integer", Description: "Maximum distance between features for merging", Default: 0},
			},
			BuildArgs: mergeArgs,
		},
		{
			Name:        "bedtools_sort",
			Description: "Sort BED/GFF/VCF files by chromosome and position",
			Files: []FileParam{
				{Name: "input_file", Description: "Path to input file"},
			},
			BuildArgs: sortArgs,
		},
	}
}

// Registry builds the immutable name -> descriptor mapping used by the
// request handler.
func Registry() map[string]*Tool {
	reg := make(map[string]*Tool)
	for _, t := range Descriptors() {
		reg[t.Name] = t
	}
	return reg
}

// Flag order is fixed per tool; only declared options affect the argv,
// unknown argument names are ignored.

func intersectArgs(staged []string, args map[string]any) []string {
	argv := []string{"intersect", "-a", staged[0], "-b", staged[1]}
	if OptionalBool(args, "write_a", false) {
		argv = append(argv, "-wa")
	}
	if OptionalBool(args, "write_b", false) {
		argv = append(argv, "-wb")
	}
	if OptionalBool(args, "write_overlap", false) {
		argv = append(argv, "-wo")
	}
	return argv
}

func mergeArgs(staged []string, args map[string]any) []string {
	argv := []string{"merge", "-i", staged[0]}
	if d := OptionalInt(args, "distance", 0); d > 0 {
		argv = append(argv, "-d", strconv.Itoa(d))
	}
	return argv
}

func sortArgs(staged []string, _ map[string]any) []string {
	return []string{"sort", "-i", staged[0]}
}
