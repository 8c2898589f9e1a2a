package scan

import (
	"sync"

	"github.com/Napageneral/commscan/internal/record"
)

// Sink receives every normalized record exactly once. Implementations own
// persistence, id assignment, and any indexing or deduplication; the scan
// core only forwards. A Sink must be safe for concurrent use when the scan
// runs analyzers in parallel.
type Sink interface {
	PostContact(record.Contact) error
	PostMessage(record.Message) error
	PostCallLog(record.CallLog) error
	PostGeoPoint(record.GeoPoint) error
	PostGeoRoute(record.GeoRoute) error
}

// MemorySink collects records in memory. Used by tests and dry runs.
type MemorySink struct {
	mu        sync.Mutex
	Contacts  []record.Contact
	Messages  []record.Message
	CallLogs  []record.CallLog
	GeoPoints []record.GeoPoint
	GeoRoutes []record.GeoRoute
}

func (s *MemorySink) PostContact(c record.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Contacts = append(s.Contacts, c)
	return nil
}

func (s *MemorySink) PostMessage(m record.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	return nil
}

func (s *MemorySink) PostCallLog(c record.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallLogs = append(s.CallLogs, c)
	return nil
}

func (s *MemorySink) PostGeoPoint(p record.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GeoPoints = append(s.GeoPoints, p)
	return nil
}

func (s *MemorySink) PostGeoRoute(r record.GeoRoute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GeoRoutes = append(s.GeoRoutes, r)
	return nil
}
