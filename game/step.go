package game

import (
	"math"
	"time"
)

// advance runs one fixed-timestep simulation tick. It only ever runs from
// the room's own goroutine, so it mutates freely. Update order matters:
// treats, roombas, lasers, doge, power-ups, weather, frenzy.
func (r *Room) advance(now time.Time) {
	w := r.settings.CanvasWidth
	h := r.settings.CanvasHeight

	r.advanceTreats(now, w, h)
	r.advanceRoombas(w, h)
	r.advanceLasers(w, h)
	r.advanceDoge(now, w, h)

	if r.rng.Float64() < powerUpChance && len(r.powerUps) < maxPowerUps {
		r.powerUps = append(r.powerUps, newPowerUp(r.settings, r.rng))
	}

	r.advanceWeather(now)
	r.advanceFrenzy(now)
}

func (r *Room) advanceTreats(now time.Time, w, h float64) {
	for i := range r.treats {
		t := &r.treats[i]
		if t.VX == 0 && t.VY == 0 {
			continue
		}
		t.X += t.VX
		t.Y += t.VY
		t.VX *= treatDamping
		t.VY *= treatDamping
		if math.Abs(t.VX) < treatRestSpeed {
			t.VX = 0
		}
		if math.Abs(t.VY) < treatRestSpeed {
			t.VY = 0
		}

		// Inelastic bounce off the canvas edges.
		if t.X < boundsPadding {
			t.X = boundsPadding
			t.VX *= treatBounce
		}
		if t.X > w-boundsPadding {
			t.X = w - boundsPadding
			t.VX *= treatBounce
		}
		if t.Y < boundsPadding+hudMargin {
			t.Y = boundsPadding + hudMargin
			t.VY *= treatBounce
		}
		if t.Y > h-boundsPadding {
			t.Y = h - boundsPadding
			t.VY *= treatBounce
		}
	}

	if !now.Before(r.nextTreatAt) && len(r.treats) < maxTreats {
		r.nextTreatAt = now.Add(treatRespawnEvery)
		r.treats = append(r.treats, newTreat(r.settings, r.rng))
	}
}

func (r *Room) advanceRoombas(w, h float64) {
	for i := range r.roombas {
		rb := &r.roombas[i]
		rb.X += rb.VX
		rb.Y += rb.VY
		if rb.X < 40 || rb.X > w-40 {
			rb.VX = -rb.VX
		}
		if rb.Y < 70 || rb.Y > h-40 {
			rb.VY = -rb.VY
		}
	}
}

func (r *Room) advanceLasers(w, h float64) {
	for i := range r.lasers {
		l := &r.lasers[i]
		l.T++
		if l.T%laserRetargetEvery == 0 {
			l.TargetX = r.rng.Float64()*(w-80) + 40
			l.TargetY = r.rng.Float64()*(h-80) + 40
		}
		dx := l.TargetX - l.X
		dy := l.TargetY - l.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			d = 1
		}
		l.X += dx / d * l.Speed
		l.Y += dy / d * l.Speed
	}
}

// advanceDoge runs the antagonist state machine: absent until the spawn
// timer elapses, then chasing the nearest player, eating for dogeEatTime on
// contact, despawning on TTL expiry or when it leaves the extended bounds
// envelope.
func (r *Room) advanceDoge(now time.Time, w, h float64) {
	if r.doge == nil {
		if now.Before(r.nextDogeAt) {
			return
		}
		r.nextDogeAt = now.Add(dogeSpawnEvery)
		d := newDoge(r.settings, r.rng)
		r.doge = &d
	}
	d := r.doge

	if d.Eating != nil {
		if now.Sub(d.Eating.Since) >= dogeEatTime {
			d.Eating = nil
		}
	} else if target := r.nearestPlayer(d.X, d.Y); target != nil {
		dx := target.Position.X - d.X
		dy := target.Position.Y - d.Y
		dist := math.Hypot(dx, dy)
		div := dist
		if div == 0 {
			div = 1
		}
		speed := dogeSpeed
		if r.secretSauce.Active {
			speed *= dogeFrenzySpeedMult
		}
		d.VX = dx / div * speed
		d.VY = dy / div * speed

		for _, m := range r.members {
			pdx := m.state.Position.X - d.X
			pdy := m.state.Position.Y - d.Y
			if math.Hypot(pdx, pdy) <= playerRadius+dogeRadius {
				d.Eating = &Meal{
					PlayerID: m.state.ID,
					Since:    now,
					RespawnX: r.rng.Float64()*(w-200) + 100,
					RespawnY: r.rng.Float64()*(h-200) + 100,
				}
				break
			}
		}
	}

	// Position freezes while eating; TTL always runs.
	if d.Eating == nil {
		d.X += d.VX
		d.Y += d.VY
	}
	d.TTL -= tickInterval

	if d.TTL <= 0 || d.X < -dogeDespawnPad || d.X > w+dogeDespawnPad ||
		d.Y < -dogeDespawnPad || d.Y > h+dogeDespawnPad {
		r.doge = nil
	}
}

// nearestPlayer returns the member closest to (x, y) by Euclidean distance.
// Ties go to the earlier joiner.
func (r *Room) nearestPlayer(x, y float64) *PlayerState {
	var closest *PlayerState
	best := math.Inf(1)
	for _, m := range r.members {
		d := math.Hypot(m.state.Position.X-x, m.state.Position.Y-y)
		if d < best {
			best = d
			closest = &m.state
		}
	}
	return closest
}

// advanceWeather keeps at most one effect live: active for its duration,
// then a cooldown before the next may start.
func (r *Room) advanceWeather(now time.Time) {
	if r.weather == nil && !now.Before(r.nextWeatherAt) {
		wth := newWeather(r.rng)
		r.weather = &wth
		r.nextWeatherAt = now.Add(weatherDuration + weatherCooldown)
	}
	if r.weather != nil && !now.Before(r.nextWeatherAt.Add(-weatherCooldown)) {
		r.weather = nil
	}
}

// advanceFrenzy drives secret-sauce mode: inactive for frenzyInterval, then
// active for frenzyDuration with a one-shot escalation burst on activation.
func (r *Room) advanceFrenzy(now time.Time) {
	if !r.secretSauce.Active {
		r.secretSauce.Countdown = int(math.Ceil(r.nextFrenzyAt.Sub(now).Seconds()))
		if now.Before(r.nextFrenzyAt) {
			return
		}
		r.secretSauce.Active = true

		// Escalation burst: extra power-ups past the normal cap, a coin-flip
		// doge, and treats up to the raised frenzy ceiling.
		for i := 0; i < 3; i++ {
			r.powerUps = append(r.powerUps, newPowerUp(r.settings, r.rng))
		}
		if r.rng.Float64() < 0.5 && r.doge == nil {
			d := newDoge(r.settings, r.rng)
			r.doge = &d
		}
		for i := 0; i < 3 && len(r.treats) < frenzyTreatCap; i++ {
			r.treats = append(r.treats, newTreat(r.settings, r.rng))
		}
		return
	}

	if !now.Before(r.nextFrenzyAt.Add(frenzyDuration)) {
		r.secretSauce.Active = false
		r.nextFrenzyAt = now.Add(frenzyInterval)
	}
}
