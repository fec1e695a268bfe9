package session

import "time"

// startTimerLocked launches the 1-second countdown loop for sess. The
// caller holds the manager lock.
func (m *Manager) startTimerLocked(sess *Session) {
	m.stopTimerLocked(sess)
	stop := make(chan struct{})
	sess.timerStop = stop
	if m.disableTimerLoop {
		return
	}
	go m.runTimer(sess.ID, stop)
}

func (m *Manager) runTimer(id string, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !m.tick(id) {
				return
			}
		}
	}
}

// tick decrements the countdown by one second. Expiry force-grades the
// session the same way an explicit submit would. Returns false once
// the loop should stop.
func (m *Manager) tick(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return false
	}
	if sess.State != StateInProgress || !sess.Timer.Running {
		return false
	}

	sess.Timer.RemainingSeconds--
	if sess.Timer.RemainingSeconds <= 0 {
		sess.Timer.RemainingSeconds = 0
		m.finalizeLocked(sess)
		return false
	}
	return true
}

// stopTimerLocked halts the countdown loop if one is running. The
// caller holds the manager lock.
func (m *Manager) stopTimerLocked(sess *Session) {
	if sess.timerStop != nil {
		close(sess.timerStop)
		sess.timerStop = nil
	}
	sess.Timer.Running = false
}
