package core

import "math/rand/v2"

var personaPrefixes = []string{
	"Zyn", "Kael", "Nyx", "Vael", "Oryn", "Xael", "Lyro", "Aeon", "Riven", "Sylas",
	"Thresh", "Zael", "Nexo", "Cyro", "Axion", "Voss", "Talon", "Quell", "Soren", "Kira",
	"Elyx", "Nova", "Zayn", "Vera", "Mira", "Azra", "Thane", "Lux", "Caelus", "Pyrex",
}

// Empty entries keep most names unadorned.
var personaSuffixes = []string{"", "-7", "", "-X", "", "-9", "", "-V", "", "-Z", "", "-0", ""}

// PersonaName draws a name for the friend persona from r.
func PersonaName(r *rand.Rand) string {
	return personaPrefixes[r.IntN(len(personaPrefixes))] + personaSuffixes[r.IntN(len(personaSuffixes))]
}

// newSessionRand returns a random source owned by a single session.
func newSessionRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
