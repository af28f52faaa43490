package logging

import (
	"math"
	"strconv"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 records a float. NaN and infinities are not valid JSON
// numbers and are recorded as strings.
func Float64(key string, value float64) Field {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Field{Key: key, Value: strconv.FormatFloat(value, 'f', -1, 64)}
	}
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component names the package emitting the entry
func Component(name string) Field {
	return String("component", name)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

// Window is the time-window label of a slice
func Window(label string) Field {
	return String("window", label)
}

// K is the requested community count
func K(k int) Field {
	return Int("k", k)
}

// Quality is a modularity score
func Quality(q float64) Field {
	return Float64("modularity", q)
}

func Producer(name string) Field {
	return String("producer", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Communities(n int) Field {
	return Int("communities", n)
}

func Nodes(n int) Field {
	return Int("nodes", n)
}

func Edges(n int) Field {
	return Int("edges", n)
}
