package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DemoDTO is the wire representation of a demo
type DemoDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"Name"`
	Description string  `json:"Description"`
	Price       float64 `json:"Price"`
	Category    string  `json:"Category"`
}

// CreateDemoRequest is the body of POST /demo
type CreateDemoRequest struct {
	Name        Text   `json:"Name"`
	Description Text   `json:"Description"`
	Price       Number `json:"Price"`
	Category    Text   `json:"Category"`
}

// UpdateDemoRequest is the body of PUT and PATCH /demo/:id. A nil field was not supplied
type UpdateDemoRequest struct {
	Name        *Text   `json:"Name"`
	Description *Text   `json:"Description"`
	Price       *Number `json:"Price"`
	Category    *Text   `json:"Category"`
}

// DemoResponse wraps a single demo with a human readable message
type DemoResponse struct {
	Message string  `json:"message"`
	Demo    DemoDTO `json:"demo"`
}

// DeleteDemosRequest is the body of POST /demo/delete
type DeleteDemosRequest struct {
	IDs []DemoID `json:"ids" validate:"required,min=1"`
}

// DeleteDemosResponse reports a successful batch delete
type DeleteDemosResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// Int64s converts the request ids
func (r DeleteDemosRequest) Int64s() []int64 {
	ids := make([]int64, 0, len(r.IDs))
	for _, id := range r.IDs {
		ids = append(ids, int64(id))
	}
	return ids
}

// DemoID is an id that decodes from a JSON integer or an integer string
type DemoID int64

func (d *DemoID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("id must not be null")
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	} else {
		raw = string(data)
	}

	id, err := ParseDemoID(raw)
	if err != nil {
		return err
	}
	*d = id
	return nil
}

// ParseDemoID parses a base-10 integer id; integral floats such as "2.0" are accepted
func ParseDemoID(raw string) (DemoID, error) {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return DemoID(id), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return DemoID(int64(f)), nil
}

// Text decodes from a JSON string, number or boolean. Objects and arrays are rejected
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot use %s as text", data)
	}
	*t = Text(n.String())
	return nil
}

// Ptr returns t as a *string, nil when t is nil
func (t *Text) Ptr() *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// Number decodes from a JSON number or a numeric string such as "10" or " 2.5 "
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("invalid number %q", raw)
	}
	*n = Number(f)
	return nil
}

// Ptr returns n as a *float64, nil when n is nil
func (n *Number) Ptr() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}
