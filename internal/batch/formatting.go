package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Format renders the batch result in the specified format.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case FormatJSON:
		return r.formatJSON()
	case FormatCSV:
		return r.formatCSV()
	case FormatText, "":
		return r.formatText(), nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be text, json or csv)", format)
	}
}

// Write renders the result to w.
func (r *Result) Write(w io.Writer, format string) error {
	out, err := r.Format(format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (r *Result) formatJSON() (string, error) {
	bts, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "output", "detected", "applied", "width", "height", "duration_ms", "warning", "error"}}
	for _, it := range r.Items {
		rows = append(rows, []string{
			it.File,
			it.Output,
			strconv.FormatBool(it.Detected),
			strconv.FormatBool(it.Applied),
			strconv.Itoa(it.Width),
			strconv.Itoa(it.Height),
			strconv.FormatInt(it.DurationMs, 10),
			it.Warning,
			it.Error,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (r *Result) formatText() string {
	var output strings.Builder
	for _, it := range r.Items {
		switch {
		case it.Failed():
			fmt.Fprintf(&output, "FAIL %s: %s\n", it.File, it.Error)
		case !it.Applied:
			fmt.Fprintf(&output, "SKIP %s -> %s (%s)\n", it.File, it.Output, it.Warning)
		default:
			fmt.Fprintf(&output, "OK   %s -> %s %dx%d\n", it.File, it.Output, it.Width, it.Height)
		}
	}
	fmt.Fprintf(&output, "\n%d inputs, %d failed, %d workers, %v\n",
		len(r.Items), r.Failed(), r.WorkerCount, r.Duration.Round(time.Millisecond))
	return output.String()
}
