// Package session persists resolved request specs as replayable sessions.
//
// A session is one raw HTTP request plus the metadata needed to find it again:
// the collection it belongs to, its display name and the canonical request it
// was built from. Creators are the sinks the import pipeline hands sessions to.
package session

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/specimport/pkg/canonical"
)

// Session is one imported request ready to be replayed.
type Session struct {
	ID         string            `json:"id" yaml:"id"`
	Collection string            `json:"collection" yaml:"collection"`
	Name       string            `json:"name" yaml:"name"`
	Spec       canonical.Spec    `json:"spec" yaml:"spec"`
	Original   canonical.Request `json:"original" yaml:"original"`
	CreatedAt  time.Time         `json:"createdAt" yaml:"createdAt"`
}

// Creator persists sessions. Implementations must be safe for concurrent use;
// the pipeline calls Create from several goroutines at once.
type Creator interface {
	Create(ctx context.Context, s Session) error
}

// CreatorFunc adapts a function to the Creator interface.
type CreatorFunc func(ctx context.Context, s Session) error

// Create calls f.
func (f CreatorFunc) Create(ctx context.Context, s Session) error {
	return f(ctx, s)
}

// RenderRaw renders spec as an HTTP/1.1 request in wire format. The Host
// header is always first and omits a default port; Content-Length is added
// for non-empty bodies unless already present.
func RenderRaw(spec canonical.Spec) string {
	var b strings.Builder

	method := spec.Method
	if method == "" {
		method = "GET"
	}
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(spec.Target())
	b.WriteString(" HTTP/1.1\r\n")

	host := spec.Host
	if !spec.DefaultPort() && spec.Port != 0 {
		host += ":" + strconv.Itoa(spec.Port)
	}
	b.WriteString("Host: " + host + "\r\n")

	for _, h := range spec.Headers {
		if strings.EqualFold(h.Name, "Host") {
			continue
		}
		b.WriteString(h.Name + ": " + h.Value + "\r\n")
	}
	if spec.Body != "" {
		if _, ok := spec.Headers.GetFold("Content-Length"); !ok {
			b.WriteString("Content-Length: " + strconv.Itoa(len(spec.Body)) + "\r\n")
		}
	}
	b.WriteString("\r\n")
	b.WriteString(spec.Body)
	return b.String()
}
