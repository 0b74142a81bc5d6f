package ote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type chartData struct {
	Axis map[string]chartAxis `json:"axis"`
	Data struct {
		DataLine []chartDataLine `json:"dataLine"`
	} `json:"data"`
}

type chartAxis struct {
	Legend string `json:"legend"`
}

type chartDataLine struct {
	Title string       `json:"title"`
	Point []chartPoint `json:"point"`
}

// A point maps an axis key to its value, e.g. {"x": "1", "y": 85.21}.
type chartPoint map[string]pointValue

// pointValue holds a point value that the endpoint sends either as a JSON
// number or as a numeric string.
type pointValue string

func (v *pointValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = pointValue(strings.TrimSpace(s))
		return nil
	}
	// Anything else is kept as raw text and rejected once it is read as a number.
	*v = pointValue(b)
	return nil
}

func (v pointValue) Float64() (float64, error) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", string(v))
	}
	return f, nil
}

func (v pointValue) Int() (int, error) {
	if i, err := strconv.Atoi(string(v)); err == nil {
		return i, nil
	}
	f, err := v.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", string(v))
	}
	return int(f), nil
}
