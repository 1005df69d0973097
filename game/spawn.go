package game

import "math/rand"

var powerUpTypes = [...]string{"Speed Boost", "Shield", "Giant Mode", "Super Meow", "Treat Magnet"}

var weatherEvents = [...]string{"Night Mode", "Slippery Floor", "Tornado", "Super Speed"}

const entityIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// entityID returns a short opaque token. Collisions are negligible over a
// match lifetime, which is all these ids are scoped to.
func entityID(rng *rand.Rand) string {
	b := make([]byte, 13)
	for i := range b {
		b[i] = entityIDAlphabet[rng.Intn(len(entityIDAlphabet))]
	}
	return string(b)
}

func newTreat(s Settings, rng *rand.Rand) Treat {
	return Treat{
		ID: entityID(rng),
		X:  rng.Float64()*(s.CanvasWidth-boundsPadding*2) + boundsPadding,
		Y:  rng.Float64()*(s.CanvasHeight-boundsPadding*2-hudMargin) + boundsPadding + hudMargin,
	}
}

func newRoomba(s Settings, rng *rand.Rand) Roomba {
	return Roomba{
		ID: entityID(rng),
		X:  rng.Float64()*(s.CanvasWidth-120) + 60,
		Y:  rng.Float64()*(s.CanvasHeight-150) + 80,
		VX: rng.Float64()*2.8 - 1.4,
		VY: rng.Float64()*2.8 - 1.4,
	}
}

func newLaser(s Settings, rng *rand.Rand) Laser {
	return Laser{
		ID:      entityID(rng),
		X:       rng.Float64()*(s.CanvasWidth-80) + 40,
		Y:       rng.Float64()*(s.CanvasHeight-130) + 90,
		T:       rng.Intn(laserRetargetEvery),
		TargetX: rng.Float64()*(s.CanvasWidth-80) + 40,
		TargetY: rng.Float64()*(s.CanvasHeight-80) + 40,
		Speed:   rng.Float64()*1.4 + 2.8,
	}
}

// newDoge spawns just off the left or right edge, aimed inward.
func newDoge(s Settings, rng *rand.Rand) Doge {
	d := Doge{
		ID:  entityID(rng),
		Y:   rng.Float64()*(s.CanvasHeight-180) + 90,
		TTL: dogeLifetime,
	}
	vx := rng.Float64()*0.5 + dogeSpeed
	if rng.Float64() < 0.5 {
		d.X = -60
		d.VX = vx
	} else {
		d.X = s.CanvasWidth + 60
		d.VX = -vx
	}
	return d
}

func newPowerUp(s Settings, rng *rand.Rand) PowerUp {
	pad := boundsPadding * 2
	return PowerUp{
		ID:   entityID(rng),
		X:    rng.Float64()*(s.CanvasWidth-pad*2) + pad,
		Y:    rng.Float64()*(s.CanvasHeight-pad*2-hudMargin) + pad + hudMargin,
		Type: powerUpTypes[rng.Intn(len(powerUpTypes))],
	}
}

func newWeather(rng *rand.Rand) Weather {
	return Weather{
		Name:     weatherEvents[rng.Intn(len(weatherEvents))],
		Duration: weatherDuration.Milliseconds(),
	}
}
