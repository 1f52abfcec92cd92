package service

import "time"

func (s *ListService) SetClock(now func() time.Time) {
	s.now = now
}
