package report

import (
	"fmt"
	"strconv"
	"time"

	"onmydesk/config"
	"onmydesk/dataset"
	"onmydesk/output"
)

// SQLType builds a report type from a config entry: the query runs on the
// configured database alias with the listed params, in order, as arguments.
//
// Date fields accept relative expressions resolved against the job's
// reference_date (today when absent). now may be nil.
func SQLType(rc config.ReportConfig, conns dataset.Connections, tempDir string, now func() time.Time) Type {
	if now == nil {
		now = time.Now
	}
	fields := make([]Field, 0, len(rc.Fields))
	kinds := map[string]string{}
	for _, f := range rc.Fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		fields = append(fields, Field{Name: f.Name, Label: label, Type: f.Type, Required: f.Required})
		kinds[f.Name] = f.Type
	}

	return Type{
		Key:    rc.Key,
		Name:   rc.Name,
		Fields: fields,
		New: func(params Params) (*Report, error) {
			ref, err := ReferenceDate(params, now())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
			}
			args := make([]any, 0, len(rc.Params))
			for _, name := range rc.Params {
				v, err := queryArg(kinds[name], params[name], ref)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
				}
				args = append(args, v)
			}

			writers := make([]output.Writer, 0, len(rc.Outputs))
			for _, format := range rc.Outputs {
				w, err := output.New(format, tempDir)
				if err != nil {
					return nil, err
				}
				writers = append(writers, w)
			}

			return &Report{
				Name:    rc.Name,
				Dataset: dataset.NewSQL(conns, rc.Query, args, rc.Database),
				Outputs: writers,
				Header:  toValues(rc.Header),
				Footer:  toValues(rc.Footer),
			}, nil
		},
	}
}

// queryArg converts a raw param to the driver argument for its field type.
// Missing values are passed as NULL.
func queryArg(kind, raw string, ref time.Time) (any, error) {
	if raw == "" {
		return nil, nil
	}
	switch kind {
	case "int":
		return strconv.ParseInt(raw, 10, 64)
	case "date":
		d, err := ResolveDate(raw, ref)
		if err != nil {
			return nil, err
		}
		return d.Format(DateLayout), nil
	}
	return raw, nil
}

func toValues(in []string) []any {
	if len(in) == 0 {
		return nil
	}
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RegisterConfigured registers every report defined in cfg.
func RegisterConfigured(reg *Registry, cfg *config.Config, conns dataset.Connections) error {
	for _, rc := range cfg.Reports {
		if err := reg.Register(SQLType(rc, conns, cfg.TempDir, nil)); err != nil {
			return err
		}
	}
	return nil
}
