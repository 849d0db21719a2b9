package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/exportsync/internal/core"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML document that declares the sources.
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`
}

// SourceConfig declares one export and how it becomes a table.
type SourceConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Path        string `yaml:"path" validate:"required"`
	Format      string `yaml:"format" validate:"omitempty,oneof=csv xlsx"`
	Sheet       string `yaml:"sheet"`
	Layout      string `yaml:"layout" validate:"required"`
	Table       string `yaml:"table" validate:"required"`
	Destination string `yaml:"destination"`
	Policy      string `yaml:"policy" validate:"omitempty,oneof=replace append"`

	Delimiter    string   `yaml:"delimiter" validate:"omitempty,len=1"`
	Encodings    []string `yaml:"encodings"`
	SkipBadLines bool     `yaml:"skip_bad_lines"`
	SkipRows     int      `yaml:"skip_rows" validate:"gte=0"`

	Columns   []string          `yaml:"columns" validate:"omitempty,dive,required"`
	Remap     map[string]string `yaml:"remap"`
	Select    []string          `yaml:"select" validate:"omitempty,dive,required"`
	KeyColumn string            `yaml:"key_column"`

	Discard        []DiscardConfig   `yaml:"discard" validate:"omitempty,dive"`
	Fields         []FieldConfig     `yaml:"fields" validate:"omitempty,dive"`
	Identifier     *IdentifierConfig `yaml:"identifier"`
	Grouping       *GroupingConfig   `yaml:"grouping"`
	ParamSeparator string            `yaml:"param_separator"`
}

// DiscardConfig is a sentinel rule. An empty column means the key column.
type DiscardConfig struct {
	Column   string   `yaml:"column"`
	Equals   []string `yaml:"equals"`
	Contains []string `yaml:"contains"`
}

// FieldConfig types one flat column.
type FieldConfig struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"omitempty,oneof=text numeric"`
}

// IdentifierConfig zero-pads a numeric identifier column.
type IdentifierConfig struct {
	Column string `yaml:"column" validate:"required"`
	Width  int    `yaml:"width" validate:"gte=0,lte=32"`
}

// GroupingConfig configures the grouped layout.
type GroupingConfig struct {
	MarkerPrefix   string       `yaml:"marker_prefix" validate:"required"`
	HeaderLabel    string       `yaml:"header_label"`
	NameColumn     string       `yaml:"name_column"`
	QuantityColumn string       `yaml:"quantity_column" validate:"required"`
	Output         OutputConfig `yaml:"output"`
}

// OutputConfig names the destination columns of grouped records.
type OutputConfig struct {
	Group    string `yaml:"group"`
	Item     string `yaml:"item"`
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
}

var validate = validator.New()

// LoadSources reads, validates and converts the sources file at path.
// Relative source paths are resolved against the file's directory.
func LoadSources(path string) ([]core.SourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	specs, err := ParseSources(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("sources file %s: %w", path, err)
	}
	return specs, nil
}

// ParseSources decodes a sources document. Unknown keys are rejected so a
// misspelled option fails loudly instead of being ignored.
func ParseSources(data []byte, baseDir string) ([]core.SourceSpec, error) {
	var file SourcesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, formatValidation(err)
	}

	var errs []string
	seen := make(map[string]bool, len(file.Sources))
	specs := make([]core.SourceSpec, 0, len(file.Sources))
	for _, sc := range file.Sources {
		if seen[sc.Name] {
			errs = append(errs, fmt.Sprintf("source %q: duplicate name", sc.Name))
			continue
		}
		seen[sc.Name] = true

		spec, err := sc.toSpec(baseDir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("source %q: %v", sc.Name, err))
			continue
		}
		specs = append(specs, spec)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid sources:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return specs, nil
}

// toSpec applies defaults: csv format, replace policy, ';' delimiter for
// delimited sources.
func (sc SourceConfig) toSpec(baseDir string) (core.SourceSpec, error) {
	spec := core.SourceSpec{
		Name:           sc.Name,
		Path:           sc.Path,
		Format:         core.Format(sc.Format),
		Sheet:          sc.Sheet,
		Layout:         sc.Layout,
		Table:          sc.Table,
		Destination:    sc.Destination,
		Policy:         core.WritePolicy(sc.Policy),
		Encodings:      sc.Encodings,
		SkipBadLines:   sc.SkipBadLines,
		SkipRows:       sc.SkipRows,
		Columns:        sc.Columns,
		Remap:          sc.Remap,
		Select:         sc.Select,
		KeyColumn:      sc.KeyColumn,
		ParamSeparator: sc.ParamSeparator,
	}

	if spec.Format == "" {
		spec.Format = core.FormatDelimited
	}
	if spec.Policy == "" {
		spec.Policy = core.PolicyReplace
	}
	if baseDir != "" && !filepath.IsAbs(spec.Path) {
		spec.Path = filepath.Join(baseDir, spec.Path)
	}

	spec.Delimiter = ';'
	if sc.Delimiter != "" {
		spec.Delimiter, _ = utf8.DecodeRuneInString(sc.Delimiter)
	}

	if _, err := core.LookupDecoders(spec.Encodings); err != nil {
		return spec, err
	}

	for _, d := range sc.Discard {
		if len(d.Equals) == 0 && len(d.Contains) == 0 {
			return spec, errors.New("discard rule needs equals or contains")
		}
		spec.Discard = append(spec.Discard, core.SentinelRule{
			Column:   d.Column,
			Equals:   d.Equals,
			Contains: d.Contains,
		})
	}

	for _, f := range sc.Fields {
		typ, _ := core.ParseFieldType(f.Type)
		spec.Fields = append(spec.Fields, core.FieldSpec{Name: f.Name, Type: typ})
	}

	if sc.Identifier != nil {
		spec.Identifier = core.IdentifierSpec{Column: sc.Identifier.Column, Width: sc.Identifier.Width}
	}

	if sc.Grouping != nil {
		g := sc.Grouping
		spec.Grouping = core.GroupingSpec{
			MarkerPrefix:   g.MarkerPrefix,
			HeaderLabel:    g.HeaderLabel,
			NameColumn:     g.NameColumn,
			QuantityColumn: g.QuantityColumn,
			Output: core.GroupOutput{
				Group:    g.Output.Group,
				Item:     g.Output.Item,
				Name:     g.Output.Name,
				Quantity: g.Output.Quantity,
			},
		}
	} else if sc.Layout == "grouped" {
		return spec, errors.New("grouped layout needs a grouping section")
	}

	return spec, nil
}

func formatValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag())
		}
	}
	return fmt.Errorf("invalid sources:\n  - %s", strings.Join(msgs, "\n  - "))
}
