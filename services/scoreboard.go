package services

import (
	"sync"
	"time"

	"taaltoren/logger"
)

const (
	globalScoresKey = "global_scores"

	// Buffered events per subscriber; a slow consumer drops messages
	// instead of blocking the broadcaster.
	subscriberBuffer = 64
)

// Event is one push-channel message.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type Subscriber struct {
	C chan Event
}

// LevelScores maps level → user → accumulated points.
type LevelScores map[string]map[string]int

func newLevelScores() LevelScores {
	ls := make(LevelScores, len(Levels))
	for _, lv := range Levels {
		ls[lv] = make(map[string]int)
	}
	return ls
}

func (ls LevelScores) clone() LevelScores {
	out := make(LevelScores, len(ls))
	for lv, users := range ls {
		m := make(map[string]int, len(users))
		for u, p := range users {
			m[u] = p
		}
		out[lv] = m
	}
	return out
}

// Scoreboard holds the in-memory session and global leaderboard
// aggregates and pushes updates to websocket subscribers. Session
// scores reset when the countdown hits zero; global scores survive
// restarts via the snapshot store.
//
// State is process-local: under a multi-instance deployment the
// aggregates would diverge per instance and need a shared store.
type Scoreboard struct {
	mu sync.RWMutex

	session LevelScores
	global  LevelScores

	timer        int
	roundSeconds int

	store SnapshotStore
	subs  map[*Subscriber]struct{}
	stop  chan struct{}
	once  sync.Once
}

func NewScoreboard(store SnapshotStore, roundSeconds int) *Scoreboard {
	if roundSeconds <= 0 {
		roundSeconds = 60
	}

	sb := &Scoreboard{
		session:      newLevelScores(),
		global:       newLevelScores(),
		timer:        roundSeconds,
		roundSeconds: roundSeconds,
		store:        store,
		subs:         make(map[*Subscriber]struct{}),
		stop:         make(chan struct{}),
	}

	var saved LevelScores
	switch err := store.Load(globalScoresKey, &saved); err {
	case nil:
		for lv, users := range saved {
			lv = NormalizeLevel(lv)
			for u, p := range users {
				sb.global[lv][u] = p
			}
		}
	case ErrSnapshotNotFound:
		// First run.
	default:
		logger.Log.Warnf("Failed to load global scores snapshot: %v", err)
	}

	return sb
}

// Start runs the one-second countdown loop until Stop is called.
func (sb *Scoreboard) Start() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sb.tick()
			case <-sb.stop:
				return
			}
		}
	}()
}

func (sb *Scoreboard) Stop() {
	sb.once.Do(func() { close(sb.stop) })
}

// tick advances the countdown; at zero the session scores are cleared,
// the countdown restarts and subscribers get a clear + sync pair.
func (sb *Scoreboard) tick() {
	sb.mu.Lock()
	sb.timer--
	expired := sb.timer <= 0
	if expired {
		sb.session = newLevelScores()
		sb.timer = sb.roundSeconds
	}
	timer := sb.timer
	sb.mu.Unlock()

	sb.publish(Event{Type: "tick", Payload: map[string]int{"timer": timer}})
	if expired {
		sb.publish(Event{Type: "clear"})
		sb.publishSync()
	}
}

// Increment adds points to both the session and the global aggregate.
func (sb *Scoreboard) Increment(user, level string, amount int) {
	sb.adjust(user, level, amount)
}

// Decrement subtracts points, clamping both aggregates at zero.
func (sb *Scoreboard) Decrement(user, level string, amount int) {
	sb.adjust(user, level, -amount)
}

func (sb *Scoreboard) adjust(user, level string, amount int) {
	if user == "" || amount == 0 {
		return
	}
	level = NormalizeLevel(level)

	sb.mu.Lock()
	sb.session[level][user] = clampZero(sb.session[level][user] + amount)
	sb.global[level][user] = clampZero(sb.global[level][user] + amount)
	global := sb.global.clone()
	sb.mu.Unlock()

	// Durable write is fire-and-forget from the caller's perspective.
	if err := sb.store.Save(globalScoresKey, global); err != nil {
		logger.Log.Errorf("Failed to persist global scores: %v", err)
	}

	sb.publishSync()
}

// Snapshot returns copies of both aggregates and the current countdown.
func (sb *Scoreboard) Snapshot() (session, global LevelScores, timer int) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.session.clone(), sb.global.clone(), sb.timer
}

// Subscribe registers a push-channel consumer and queues an immediate
// sync plus the current countdown.
func (sb *Scoreboard) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, subscriberBuffer)}

	sb.mu.Lock()
	sb.subs[sub] = struct{}{}
	session := sb.session.clone()
	global := sb.global.clone()
	timer := sb.timer
	sb.mu.Unlock()

	sub.C <- syncEvent(session, global)
	sub.C <- Event{Type: "tick", Payload: map[string]int{"timer": timer}}
	return sub
}

func (sb *Scoreboard) Unsubscribe(sub *Subscriber) {
	sb.mu.Lock()
	delete(sb.subs, sub)
	sb.mu.Unlock()
}

func (sb *Scoreboard) publishSync() {
	sb.mu.RLock()
	session := sb.session.clone()
	global := sb.global.clone()
	sb.mu.RUnlock()

	sb.publish(syncEvent(session, global))
}

func (sb *Scoreboard) publish(ev Event) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	for sub := range sb.subs {
		select {
		case sub.C <- ev:
		default:
			// Buffer full; the subscriber catches up on the next sync.
		}
	}
}

func syncEvent(session, global LevelScores) Event {
	return Event{
		Type: "sync",
		Payload: map[string]LevelScores{
			"sessionScores": session,
			"globalScores":  global,
		},
	}
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
