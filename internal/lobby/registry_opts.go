package lobby

import "github.com/pixil98/go-factory/internal/factory"

type RegistryOpt func(*Registry)

// WithMaxPlayers sets the room capacity.
func WithMaxPlayers(n int) RegistryOpt {
	return func(reg *Registry) {
		if n > 0 {
			reg.maxPlayers = n
		}
	}
}

// WithRoomOpts sets the options every new room is created with.
func WithRoomOpts(opts ...factory.RoomOpt) RegistryOpt {
	return func(reg *Registry) {
		reg.roomOpts = append(reg.roomOpts, opts...)
	}
}

// WithAttach registers a hook run on every new room.
func WithAttach(fn AttachFunc) RegistryOpt {
	return func(reg *Registry) {
		reg.attach = append(reg.attach, fn)
	}
}
