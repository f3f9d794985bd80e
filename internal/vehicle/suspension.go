package vehicle

// updateSuspension runs the spring-damper for one wheel. A sphere of wheel
// radius is cast down from one radius above the hardpoint; no hit within
// MaxSpringDistance means the wheel is airborne, contributes zero force and
// keeps its last offset for visual continuity.
func (v *Vehicle) updateSuspension(i int, dt float64) {
	w := &v.wheels[i]
	up := v.body.Up()
	hardpoint := v.body.WorldPoint(w.hardpoint)

	hit, ok := v.world.SphereCast(hardpoint.Add(up.Mul(v.cfg.WheelRadius)), up.Mul(-1),
		v.cfg.WheelRadius, v.cfg.MaxSpringDistance)
	if !ok {
		w.grounded = false
		w.rawForce = 0
		return
	}
	w.grounded = true
	w.hit = hit

	prev := w.offset
	w.offset = clamp01((v.cfg.MaxSpringDistance + 0.1 - hit.Distance) /
		(v.cfg.MaxSpringDistance - v.cfg.WheelRadius - 0.1))

	vel := -(w.offset - prev) / dt
	if w.offset < 0.3 {
		// Shallow contact is mostly cast noise.
		vel = 0
	}
	pointVelUp := v.body.VelocityAtPoint(hardpoint).Dot(up)
	if vel < 0 && w.offset > 0.6 && pointVelUp < 10 {
		vel *= 10
	}

	spring := w.offset * w.offset * v.cfg.SpringForce

	damping := -vel * v.cfg.Damper
	// Damping may never inject more energy than the body's own motion.
	limit := 0.25 * v.body.Mass() * abs(pointVelUp) / dt
	damping = clampSym(damping, limit)
	if v.cfg.MaxSpringDistance-hit.Distance < 0.1 {
		// Near full extension the damper only chatters.
		damping = 0
	}

	w.rawForce = spring + damping
}

// applySuspension replaces every wheel's force scalar with the mean of all
// four and applies it at each grounded hardpoint along the contact normal
// projected onto chassis up. The averaging suppresses per-wheel vertical
// independence on purpose; friction consumes the averaged value, so keep the
// two in sync.
func (v *Vehicle) applySuspension() {
	var sum float64
	for i := range v.wheels {
		sum += v.wheels[i].rawForce
	}
	avg := sum / float64(len(v.wheels))

	up := v.body.Up()
	for i := range v.wheels {
		w := &v.wheels[i]
		if !w.grounded {
			w.force = 0
			continue
		}
		w.force = avg
		dir := up.Mul(w.hit.Normal.Dot(up))
		v.body.ApplyForceAtPoint(dir.Mul(avg), v.body.WorldPoint(w.hardpoint))
	}
}

func clampSym(x, bound float64) float64 {
	if x > bound {
		return bound
	}
	if x < -bound {
		return -bound
	}
	return x
}
