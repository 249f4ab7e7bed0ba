// Package cardfile reads and writes dynamometer card files.
//
// A card file is plain text. Lines starting with '#' are comments; four of
// them may carry header fields in "Key: value" form. An optional
// "position,length,weight" column line precedes the data, which is one
// "position,displacement,load" triple per line.
package cardfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dzhang123/DynaCard/internal/domain/cycle"
	"github.com/dzhang123/DynaCard/internal/domain/model"
)

// Header field keys as they appear in card file comments.
const (
	KeyWellID       = "Well ID Number"
	KeyTimestamp    = "Timestamp"
	KeyDeviceSerial = "Device Serial Number"
	KeySensorSerial = "Sensor Serial Number"
)

const (
	columnLine  = "position,length,weight"
	commentMark = "#"
	fileMode    = 0o600
)

// Card is the parsed content of a card file.
type Card struct {
	Header  model.Header
	Samples []cycle.Sample
}

// ReadFile parses the card file at path.
func ReadFile(path string) (Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return Card{}, fmt.Errorf("open card file: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return Card{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read parses a card from r.
func Read(r io.Reader) (Card, error) {
	var c Card
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, commentMark):
			parseHeaderLine(&c.Header, line)
			continue
		case strings.Join(strings.Fields(line), "") == columnLine:
			continue
		}

		s, err := parseSample(line)
		if err != nil {
			return Card{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		c.Samples = append(c.Samples, s)
	}
	if err := sc.Err(); err != nil {
		return Card{}, fmt.Errorf("read card: %w", err)
	}
	return c, nil
}

// parseHeaderLine fills the first header field whose key appears in the
// comment, taking the text after the next ':' as its value.
func parseHeaderLine(h *model.Header, line string) {
	fields := []struct {
		key string
		dst *string
	}{
		{KeyWellID, &h.WellID},
		{KeyTimestamp, &h.Timestamp},
		{KeyDeviceSerial, &h.DeviceSerial},
		{KeySensorSerial, &h.SensorSerial},
	}
	for _, f := range fields {
		i := strings.Index(line, f.key)
		if i < 0 {
			continue
		}
		rest := line[i+len(f.key):]
		if j := strings.Index(rest, ":"); j >= 0 {
			*f.dst = strings.TrimSpace(rest[j+1:])
		}
		return
	}
}

func parseSample(line string) (cycle.Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return cycle.Sample{}, fmt.Errorf("%d fields in %q: %w", len(parts), line, ErrMalformedLine)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return cycle.Sample{}, fmt.Errorf("field %d of %q: %w", i+1, line, ErrMalformedLine)
		}
		v[i] = f
	}
	pos, err := model.WholeDegrees(v[0])
	if err != nil {
		return cycle.Sample{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	return cycle.Sample{Position: pos, Displacement: v[1], Load: v[2]}, nil
}

// Write renders a card file. Empty header fields are left out.
func Write(w io.Writer, h model.Header, samples []cycle.Sample) error {
	bw := bufio.NewWriter(w)
	for _, f := range []struct{ key, val string }{
		{KeyWellID, h.WellID},
		{KeyTimestamp, h.Timestamp},
		{KeyDeviceSerial, h.DeviceSerial},
		{KeySensorSerial, h.SensorSerial},
	} {
		if f.val != "" {
			fmt.Fprintf(bw, "%s %s: %s\n", commentMark, f.key, f.val)
		}
	}
	bw.WriteString(columnLine + "\n")
	for _, s := range samples {
		bw.WriteString(strconv.Itoa(s.Position))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatFloat(s.Displacement, 'f', -1, 64))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatFloat(s.Load, 'f', -1, 64))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write card: %w", err)
	}
	return nil
}

// WriteFile writes a card file to path.
func WriteFile(path string, h model.Header, samples []cycle.Sample) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("create card file: %w", err)
	}
	if err := Write(f, h, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
