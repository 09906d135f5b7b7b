package factory

import "github.com/pixil98/go-factory/internal/bus"

// critMachine occasionally boosts pending score and resource increments.
// One handler serves both modifier pipelines.
type critMachine struct {
	room  *Room
	onMod *bus.Handler[*Pending]
}

func newCritMachine(r *Room) *critMachine {
	m := &critMachine{room: r}
	m.onMod = bus.NewHandler("crit machine", m.handleMod)
	return m
}

func (m *critMachine) Name() string {
	return "CritMachine"
}

func (m *critMachine) OnEnter() {
	m.room.events.ScoreMods.Subscribe(m.onMod)
	m.room.events.ResourceMods.Subscribe(m.onMod)
}

func (m *critMachine) OnExit() {
	m.room.events.ScoreMods.Unsubscribe(m.onMod)
	m.room.events.ResourceMods.Unsubscribe(m.onMod)
}

func (m *critMachine) handleMod(p *Pending) {
	c := m.room.component(KindCritMachine)
	chance := float64(c.Value(valueCritChance))
	if chance <= 0 || m.room.roll()*100 >= chance {
		return
	}

	p.Value *= 1 + float64(c.Value(valueCritEffect))/100
	p.Crit = true
}
