package anim

// Motion is a set of acts that run together for Duration seconds.
type Motion struct {
	Acts     []Act
	Duration float32
}

// Run advances the motion from elapsed time s by step. When the step runs
// past the end the acts are driven to completion, done is true and the
// unused time is returned as overflow.
func (m *Motion) Run(target Target, s, step float32) (next, overflow float32, done bool, err error) {
	d := m.Duration
	e := s + step
	if e > d {
		e = d
	}

	for i := range m.Acts {
		if err := m.Acts[i].Run(target, s, e, d); err != nil {
			return s, 0, false, err
		}
	}

	if s+step > d {
		return 0, s + step - d, true, nil
	}
	return e, 0, false, nil
}
