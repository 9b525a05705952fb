package invoice

import "time"

func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }
