package session

import "time"

// ticker is the periodic display refresh owned by a running session.
type ticker struct {
	stop chan struct{}
	done chan struct{}
}

func (s *Session) startTickerLocked() {
	if s.tick != nil || s.interval <= 0 {
		return
	}
	t := &ticker{stop: make(chan struct{}), done: make(chan struct{})}
	s.tick = t
	go s.runTicker(t)
}

// stopTickerLocked returns only once the tick goroutine has exited, so no tick is published
// after a pause or reset.
func (s *Session) stopTickerLocked() {
	if s.tick == nil {
		return
	}
	close(s.tick.stop)
	<-s.tick.done
	s.tick = nil
}

func (s *Session) runTicker(t *ticker) {
	defer close(t.done)
	tk := time.NewTicker(s.interval)
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
			select {
			case <-t.stop:
				return
			default:
			}
			s.publishTick(s.engine.ElapsedMs())
		}
	}
}
