package session

// Stats - снимок состояния сессии для админки и метрик.
type Stats struct {
	ID              string
	Mode            Mode
	Active          bool
	Player2         bool
	Lives           [2]int
	Scores          [2]int
	Enemies         int
	Fruits          int
	DestroyedBlocks int
	Speed           float64
}

// Stats безопасно читать из любой горутины.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	st := s.stats
	st.Active = s.Active()
	return st
}

func (s *Session) publishStats() {
	st := Stats{
		ID:              s.id,
		Mode:            s.mode,
		Player2:         s.p2Active,
		Enemies:         len(s.enemies),
		Fruits:          len(s.fruits),
		DestroyedBlocks: s.blocks.Len(),
		Speed:           s.speed.Get(),
	}
	for i, p := range s.configuredPlayers() {
		st.Lives[i] = p.Lives
		st.Scores[i] = p.Score
	}
	s.statsMu.Lock()
	s.stats = st
	s.statsMu.Unlock()
}
