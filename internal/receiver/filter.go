package receiver

// Filter restricts which ICAO addresses a Server folds into the
// Tracker, adapted from the teacher's lib/example_finder.Filter (which
// filtered by ICAO and downlink/message type across multiple wire
// formats); this system only ever decodes DF17, so the type dimension
// collapses to an ICAO allow-list.
type Filter struct {
	allow map[uint32]struct{}
}

// NewFilter builds a Filter that accepts only the given ICAO
// addresses. An empty allow-list accepts everything.
func NewFilter(icaos ...uint32) *Filter {
	if len(icaos) == 0 {
		return nil
	}
	f := &Filter{allow: make(map[uint32]struct{}, len(icaos))}
	for _, icao := range icaos {
		f.allow[icao] = struct{}{}
	}
	return f
}

func (f *Filter) Allows(icao uint32) bool {
	if f == nil || len(f.allow) == 0 {
		return true
	}
	_, ok := f.allow[icao]
	return ok
}

// WithFilter attaches an ICAO allow-list to the server.
func (s *Server) WithFilter(f *Filter) *Server {
	s.filter = f
	return s
}
