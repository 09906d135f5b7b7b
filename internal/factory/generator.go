package factory

import "github.com/pixil98/go-factory/internal/bus"

// resourceGenerator converts accumulated score into resources for everyone.
type resourceGenerator struct {
	room    *Room
	counter int
	onScore *bus.Handler[ScoreIncrement]
}

func newResourceGenerator(r *Room) *resourceGenerator {
	g := &resourceGenerator{room: r}
	g.onScore = bus.NewHandler("resource generator", g.handleScore)
	return g
}

func (g *resourceGenerator) Name() string {
	return "ResourceGenerator"
}

func (g *resourceGenerator) OnEnter() {
	g.room.events.ScoreIncremented.Subscribe(g.onScore)
}

func (g *resourceGenerator) OnExit() {
	g.room.events.ScoreIncremented.Unsubscribe(g.onScore)
}

// Counter returns the score accumulated toward the next payout.
func (g *resourceGenerator) Counter() int {
	return g.counter
}

func (g *resourceGenerator) handleScore(inc ScoreIncrement) {
	c := g.room.component(KindGenerator)
	g.counter += inc.Delta

	// A large delta may cover several thresholds.
	for threshold := c.Value(valueThreshold); threshold > 0 && g.counter >= threshold; threshold = c.Value(valueThreshold) {
		amount := LerpRound(c.Value(valueMinRoll), c.Value(valueMaxRoll), g.room.roll())
		g.counter -= threshold
		g.room.incrementResources(amount)
	}
}
