package membership

// MapSession is an in memory Session, useful for tests and hosts
// without a session middleware.
type MapSession map[string]any

var _ Session = MapSession{}

// NewMapSession returns an empty session
func NewMapSession() MapSession {
	return MapSession{}
}

func (s MapSession) Get(key string) any {
	return s[key]
}

func (s MapSession) Set(key string, value any) {
	s[key] = value
}

func (s MapSession) Delete(key string) {
	delete(s, key)
}

func (s MapSession) Clear() error {
	for k := range s {
		delete(s, k)
	}
	return nil
}
