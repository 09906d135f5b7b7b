package factory

import "github.com/pixil98/go-factory/internal/bus"

// scoreAssembler turns clicks into score.
type scoreAssembler struct {
	room    *Room
	onClick *bus.Handler[float64]
}

func newScoreAssembler(r *Room) *scoreAssembler {
	a := &scoreAssembler{room: r}
	a.onClick = bus.NewHandler("score assembler", a.handleClick)
	return a
}

func (a *scoreAssembler) Name() string {
	return "ScoreAssembler"
}

func (a *scoreAssembler) OnEnter() {
	a.room.events.Click.Subscribe(a.onClick)
}

func (a *scoreAssembler) OnExit() {
	a.room.events.Click.Unsubscribe(a.onClick)
}

func (a *scoreAssembler) handleClick(roll float64) {
	c := a.room.component(KindAssembler)
	a.room.incrementScore(LerpRound(c.Value(valueMinRoll), c.Value(valueMaxRoll), roll))
}
