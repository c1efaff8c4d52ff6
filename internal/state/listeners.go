package state

import "gonum.org/v1/gonum/stat/distuv"

// The listener counter is pure UI flavor: preloaded folders start somewhere
// in the hundreds, imports start small, and a periodic bounded random walk
// keeps the numbers moving.
const (
	listenersFloor = 10
	walkStep       = 2
)

type listenerSeed struct {
	dist distuv.Uniform
}

var (
	preloadSeed = listenerSeed{distuv.Uniform{Min: 100, Max: 600}}
	importSeed  = listenerSeed{distuv.Uniform{Min: 0, Max: 100}}

	walkDirection = distuv.Bernoulli{P: 0.5}
)

func seedListeners(seed listenerSeed) int {
	return int(seed.dist.Rand())
}

// TickListeners applies one step of the walk to every folder. It only ever
// rewrites the Listeners field, so it interleaves freely with other
// mutations.
func (s *Store) TickListeners() {
	for i := range s.folders {
		n := s.folders[i].Listeners - walkStep
		if walkDirection.Rand() == 1 {
			n = s.folders[i].Listeners + walkStep
		}

		if n < listenersFloor {
			n = listenersFloor
		}

		s.folders[i].Listeners = n
	}

	s.persist()
}
