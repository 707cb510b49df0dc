package sandbox

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Faults describes artificial latency and random failures.
type Faults struct {
	Latency time.Duration

	// Rate is the probability in [0,1] that a request fails with Code.
	Rate float64
	Code int
}

// ParseFaults parses "rate=<float>,code=<status>". An empty string disables
// failure injection.
func ParseFaults(raw string) (Faults, error) {
	if strings.TrimSpace(raw) == "" {
		return Faults{}, nil
	}
	f := Faults{Code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Faults{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Faults{}, err
			}
			if rate < 0 || rate > 1 {
				return Faults{}, fmt.Errorf("fail rate %v out of range [0,1]", rate)
			}
			f.Rate = rate
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return Faults{}, err
			}
			f.Code = code
		default:
			return Faults{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return f, nil
}

// middleware delays and fails requests. Injected failures are plain text, so
// clients see them as non-envelope responses.
func (f Faults) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.Latency > 0 {
			select {
			case <-time.After(f.Latency):
			case <-r.Context().Done():
				return
			}
		}
		if f.Rate > 0 && rand.Float64() < f.Rate {
			code := f.Code
			if code == 0 {
				code = http.StatusInternalServerError
			}
			http.Error(w, "failure injected", code)
			return
		}
		next.ServeHTTP(w, r)
	})
}
