// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"net/http"
	"strings"
	"time"
)

const (
	// MarkerCookieName lists teachers this browser has voted for.
	MarkerCookieName = "rmt_voted"
	// MarkerCap bounds the cookie; the oldest ids fall off first.
	MarkerCap = 50
)

// Marker is the client-held list of voted teacher ids. It drives UI
// state only and is never consulted for deduplication.
type Marker []string

func ParseMarker(value string) Marker {
	var m Marker
	for _, id := range strings.Split(value, ",") {
		id = strings.TrimSpace(id)
		if id != "" && !m.Has(id) {
			m = append(m, id)
		}
	}
	if len(m) > MarkerCap {
		m = m[len(m)-MarkerCap:]
	}
	return m
}

func MarkerFromRequest(r *http.Request) Marker {
	c, err := r.Cookie(MarkerCookieName)
	if err != nil {
		return nil
	}
	return ParseMarker(c.Value)
}

func (m Marker) Has(id string) bool {
	for _, v := range m {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id as the most recent entry.
func (m Marker) Add(id string) Marker {
	out := append(m.Remove(id), id)
	if len(out) > MarkerCap {
		out = out[len(out)-MarkerCap:]
	}
	return out
}

func (m Marker) Remove(id string) Marker {
	out := make(Marker, 0, len(m)+1)
	for _, v := range m {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (m Marker) String() string {
	return strings.Join(m, ",")
}

func (m Marker) Cookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     MarkerCookieName,
		Value:    m.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
