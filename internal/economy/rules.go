package economy

// Rule mutates game values after an upgrade. count is the upgrade count
// after the upgrade was applied.
type Rule func(count int, values []int)

// Chain applies rules in order.
func Chain(rules ...Rule) Rule {
	return func(count int, values []int) {
		for _, r := range rules {
			r(count, values)
		}
	}
}

// Add adds step to values[index].
func Add(index, step int) Rule {
	return func(_ int, values []int) {
		if index < len(values) {
			values[index] += step
		}
	}
}

// WidenRange grows a [min, max] roll pair stored at values[0] and values[1].
func WidenRange(minStep, maxStep int) Rule {
	return Chain(Add(0, minStep), Add(1, maxStep))
}

// ShrinkEvery lowers values[index] by step on every nth upgrade, never below floor.
func ShrinkEvery(index, every, step, floor int) Rule {
	return func(count int, values []int) {
		if index >= len(values) || every <= 0 || count%every != 0 {
			return
		}
		values[index] = max(values[index]-step, floor)
	}
}

// RaiseBounded raises values[index] by step, never above ceiling.
func RaiseBounded(index, step, ceiling int) Rule {
	return func(_ int, values []int) {
		if index < len(values) {
			values[index] = min(values[index]+step, ceiling)
		}
	}
}
