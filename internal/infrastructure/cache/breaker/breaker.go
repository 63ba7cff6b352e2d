// internal/infrastructure/cache/breaker/breaker.go
package breaker

import (
	"sync"
	"time"
)

// State - состояние предохранителя
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Settings - параметры предохранителя
type Settings struct {
	Name             string
	FailureThreshold int
	Window           time.Duration
	Cooldown         time.Duration
	MaxCooldown      time.Duration
	Multiplier       float64
	Now              func() time.Time
	OnStateChange    func(name string, from, to State)
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() Settings {
	return Settings{
		Name:             "cache",
		FailureThreshold: 5,
		Window:           60 * time.Second,
		Cooldown:         30 * time.Second,
		MaxCooldown:      5 * time.Minute,
		Multiplier:       2,
	}
}

// Ticket выдается на каждый допущенный вызов и возвращается через Report или Release.
// Тикеты прошлых поколений игнорируются.
type Ticket struct {
	generation uint64
	trial      bool
}

// Snapshot - снимок состояния для статистики
type Snapshot struct {
	State         State
	Failures      int
	LastFailure   time.Time
	CooldownUntil time.Time
	Cooldown      time.Duration
}

type transition struct {
	from, to State
}

// Breaker - предохранитель со скользящим окном ошибок и экспоненциальным
// ростом паузы после неудачной пробы. Все переходы выполняются под одним мьютексом.
type Breaker struct {
	mu sync.Mutex

	settings Settings

	state         State
	generation    uint64
	failures      []time.Time
	lastFailure   time.Time
	cooldown      time.Duration
	cooldownUntil time.Time
	trialInFlight bool
}

// New создает предохранитель, подставляя значения по умолчанию для нулевых полей
func New(s Settings) *Breaker {
	def := DefaultSettings()
	if s.Name == "" {
		s.Name = def.Name
	}
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = def.FailureThreshold
	}
	if s.Window <= 0 {
		s.Window = def.Window
	}
	if s.Cooldown <= 0 {
		s.Cooldown = def.Cooldown
	}
	if s.MaxCooldown < s.Cooldown {
		s.MaxCooldown = s.Cooldown
	}
	if s.Multiplier < 1 {
		s.Multiplier = def.Multiplier
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	return &Breaker{
		settings: s,
		state:    StateClosed,
		cooldown: s.Cooldown,
	}
}

// Name возвращает имя предохранителя
func (b *Breaker) Name() string {
	return b.settings.Name
}

// Allow решает, можно ли обращаться к бэкенду. В HalfOpen допускается ровно один пробный вызов.
func (b *Breaker) Allow() (Ticket, bool) {
	b.mu.Lock()
	tr := b.advance(b.settings.Now())

	var (
		t  Ticket
		ok bool
	)
	switch b.state {
	case StateClosed:
		t, ok = Ticket{generation: b.generation}, true
	case StateHalfOpen:
		if !b.trialInFlight {
			b.trialInFlight = true
			t, ok = Ticket{generation: b.generation, trial: true}, true
		}
	}
	b.mu.Unlock()

	b.notify(tr)
	return t, ok
}

// Report фиксирует исход вызова, допущенного через Allow
func (b *Breaker) Report(t Ticket, success bool) {
	b.mu.Lock()
	var trs []transition
	if t.generation == b.generation {
		now := b.settings.Now()
		switch b.state {
		case StateClosed:
			if !success {
				b.recordFailure(now)
				if len(b.failures) >= b.settings.FailureThreshold {
					trs = append(trs, b.open(now, b.settings.Cooldown))
				}
			}
		case StateHalfOpen:
			if t.trial {
				b.trialInFlight = false
				if success {
					trs = append(trs, b.close())
				} else {
					b.recordFailure(now)
					trs = append(trs, b.open(now, b.nextCooldown()))
				}
			}
		}
	}
	b.mu.Unlock()

	b.notify(trs)
}

// Release освобождает пробный слот без вердикта (например, при отмене контекста)
func (b *Breaker) Release(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.trial && t.generation == b.generation && b.state == StateHalfOpen {
		b.trialInFlight = false
	}
}

// State возвращает текущее эффективное состояние с учетом истекшей паузы
func (b *Breaker) State() State {
	b.mu.Lock()
	tr := b.advance(b.settings.Now())
	s := b.state
	b.mu.Unlock()

	b.notify(tr)
	return s
}

// Snapshot возвращает снимок состояния
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	now := b.settings.Now()
	tr := b.advance(now)
	b.pruneFailures(now)
	snap := Snapshot{
		State:         b.state,
		Failures:      len(b.failures),
		LastFailure:   b.lastFailure,
		CooldownUntil: b.cooldownUntil,
		Cooldown:      b.cooldown,
	}
	b.mu.Unlock()

	b.notify(tr)
	return snap
}

func (b *Breaker) advance(now time.Time) []transition {
	if b.state == StateOpen && !now.Before(b.cooldownUntil) {
		return []transition{b.setState(StateHalfOpen)}
	}
	return nil
}

func (b *Breaker) recordFailure(now time.Time) {
	b.pruneFailures(now)
	b.failures = append(b.failures, now)
	b.lastFailure = now
}

func (b *Breaker) pruneFailures(now time.Time) {
	cutoff := now.Add(-b.settings.Window)
	i := 0
	for i < len(b.failures) && !b.failures[i].After(cutoff) {
		i++
	}
	b.failures = b.failures[i:]
}

func (b *Breaker) open(now time.Time, cooldown time.Duration) transition {
	b.cooldown = cooldown
	b.cooldownUntil = now.Add(cooldown)
	return b.setState(StateOpen)
}

func (b *Breaker) close() transition {
	b.failures = nil
	b.cooldown = b.settings.Cooldown
	b.cooldownUntil = time.Time{}
	return b.setState(StateClosed)
}

func (b *Breaker) nextCooldown() time.Duration {
	next := time.Duration(float64(b.cooldown) * b.settings.Multiplier)
	if next > b.settings.MaxCooldown || next <= 0 {
		next = b.settings.MaxCooldown
	}
	return next
}

func (b *Breaker) setState(to State) transition {
	from := b.state
	b.state = to
	b.generation++
	b.trialInFlight = false
	return transition{from: from, to: to}
}

func (b *Breaker) notify(trs []transition) {
	if b.settings.OnStateChange == nil {
		return
	}
	for _, tr := range trs {
		b.settings.OnStateChange(b.settings.Name, tr.from, tr.to)
	}
}
