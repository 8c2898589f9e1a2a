package scan

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Napageneral/commscan/internal/record"
)

// Context is the per-scan state threaded into every analyzer invocation.
// It carries the collaborators (sink, locator, logger), the scan policy,
// cooperative cancellation, and the record/error tallies for the summary.
// One Context serves one scan; analyzers never share state outside it.
type Context struct {
	ctx     context.Context
	log     *zap.Logger
	sink    Sink
	locator Locator

	// EmitNameOnlyContacts controls whether a Contact with a display name
	// but no contact-method field is still posted.
	EmitNameOnlyContacts bool

	mu           sync.Mutex
	selfAccounts map[string]string
	errs         []string
	contacts     int
	messages     int
	callLogs     int
	geoPoints    int
	geoRoutes    int
	progressed   int
}

// NewContext builds a scan context. ctx carries cancellation for the whole
// scan.
func NewContext(ctx context.Context, log *zap.Logger, sink Sink, locator Locator) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		ctx:                  ctx,
		log:                  log,
		sink:                 sink,
		locator:              locator,
		EmitNameOnlyContacts: true,
		selfAccounts:         make(map[string]string),
	}
}

// Log returns the scan logger.
func (c *Context) Log() *zap.Logger { return c.log }

// Locator returns the file discovery collaborator.
func (c *Context) Locator() Locator { return c.locator }

// Cancelled reports whether the scan has been cancelled. Analyzers should
// poll it between rows of long result sets.
func (c *Context) Cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// ReportProgress adds n processed units to the scan's progress tally.
func (c *Context) ReportProgress(n int) {
	c.mu.Lock()
	c.progressed += n
	c.mu.Unlock()
}

// SetSelfAccount records the device owner's account id discovered inside an
// app database (the Skype user table, for one), scoped to this scan.
func (c *Context) SetSelfAccount(app, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" {
		c.selfAccounts[app] = id
	}
}

// SelfAccount returns the recorded owner account id for an app, or "".
func (c *Context) SelfAccount(app string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfAccounts[app]
}

// Warn logs a non-fatal scan error and records it for the summary.
func (c *Context) Warn(msg string, err error, fields ...zap.Field) {
	c.log.Warn(msg, append(fields, zap.Error(err))...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs = append(c.errs, msg+": "+err.Error())
	} else {
		c.errs = append(c.errs, msg)
	}
}

// PostContact forwards a contact to the sink, applying the name-only
// policy. Sink failures are non-fatal warnings.
func (c *Context) PostContact(ct record.Contact) {
	if !ct.HasContactMethod() {
		if ct.DisplayName == "" || !c.EmitNameOnlyContacts {
			return
		}
	}
	if err := c.sink.PostContact(ct); err != nil {
		c.Warn("sink rejected contact", err, zap.String("source", ct.Source))
		return
	}
	c.mu.Lock()
	c.contacts++
	c.mu.Unlock()
}

// PostMessage forwards a message to the sink.
func (c *Context) PostMessage(m record.Message) {
	if err := c.sink.PostMessage(m); err != nil {
		c.Warn("sink rejected message", err, zap.String("kind", m.Kind))
		return
	}
	c.mu.Lock()
	c.messages++
	c.mu.Unlock()
}

// PostCallLog forwards a call-log record to the sink.
func (c *Context) PostCallLog(cl record.CallLog) {
	if err := c.sink.PostCallLog(cl); err != nil {
		c.Warn("sink rejected call log", err, zap.String("source", cl.Source))
		return
	}
	c.mu.Lock()
	c.callLogs++
	c.mu.Unlock()
}

// PostGeoPoint forwards a geolocation point to the sink.
func (c *Context) PostGeoPoint(p record.GeoPoint) {
	if err := c.sink.PostGeoPoint(p); err != nil {
		c.Warn("sink rejected geo point", err, zap.String("source", p.Source))
		return
	}
	c.mu.Lock()
	c.geoPoints++
	c.mu.Unlock()
}

// PostGeoRoute forwards a route to the sink.
func (c *Context) PostGeoRoute(r record.GeoRoute) {
	if err := c.sink.PostGeoRoute(r); err != nil {
		c.Warn("sink rejected geo route", err, zap.String("source", r.Source))
		return
	}
	c.mu.Lock()
	c.geoRoutes++
	c.mu.Unlock()
}
